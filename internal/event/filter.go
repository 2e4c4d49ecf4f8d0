package event

import "slices"

// FilterPayload narrows the payload to T and applies predicate.
// Payloads of any other type are rejected.
func FilterPayload[T any](predicate func(payload T) bool) FilterFunc {
	return func(payload any) bool {
		p, ok := payload.(T)
		return ok && predicate(p)
	}
}

// FilterType passes payloads of type T.
func FilterType[T any]() FilterFunc {
	return FilterPayload(func(T) bool { return true })
}

// FilterEqual passes payloads equal to want.
func FilterEqual[T comparable](want T) FilterFunc {
	return FilterPayload(func(p T) bool { return p == want })
}

// FilterAnd passes a payload only if every filter does. No filters pass everything.
func FilterAnd(filters ...FilterFunc) FilterFunc {
	return func(payload any) bool {
		return !slices.ContainsFunc(filters, func(f FilterFunc) bool { return !f(payload) })
	}
}

// FilterOr passes a payload if any filter does. No filters pass nothing.
func FilterOr(filters ...FilterFunc) FilterFunc {
	return func(payload any) bool {
		return slices.ContainsFunc(filters, func(f FilterFunc) bool { return f(payload) })
	}
}

// FilterNot negates filter.
func FilterNot(filter FilterFunc) FilterFunc {
	return func(payload any) bool { return !filter(payload) }
}

// FilterAll passes everything.
func FilterAll() FilterFunc {
	return func(any) bool { return true }
}

// FilterNone passes nothing.
func FilterNone() FilterFunc {
	return func(any) bool { return false }
}
