package store

// Filter is a predicate over documents. The concrete types below are the only supported implementations.
type Filter interface {
	isFilter()
}

type MatchAllFilter struct{}

type TermFilter struct {
	Field string
	Value interface{}
}

type TermsFilter struct {
	Field  string
	Values []interface{}
}

// RangeFilter matches documents whose field lies within [Gte, Lte]. A nil bound is open.
// Bounds may be numbers or time.Time.
type RangeFilter struct {
	Field string
	Gte   interface{}
	Lte   interface{}
}

type ExistsFilter struct {
	Field string
}

// BoolFilter matches documents satisfying every Must filter and, if Should is non-empty, at least one Should filter.
type BoolFilter struct {
	Must   []Filter
	Should []Filter
}

func (MatchAllFilter) isFilter() {}
func (TermFilter) isFilter()     {}
func (TermsFilter) isFilter()    {}
func (RangeFilter) isFilter()    {}
func (ExistsFilter) isFilter()   {}
func (BoolFilter) isFilter()     {}

func MatchAll() Filter {
	return MatchAllFilter{}
}

func Term(field string, value interface{}) Filter {
	return TermFilter{Field: field, Value: value}
}

func Terms(field string, values ...string) Filter {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return TermsFilter{Field: field, Values: vs}
}

func Exists(field string) Filter {
	return ExistsFilter{Field: field}
}

// And combines filters conjunctively. Nil and match-all filters are dropped; if nothing is left the result is MatchAll.
func And(filters ...Filter) Filter {
	var must []Filter
	for _, f := range filters {
		if f == nil {
			continue
		}
		if _, ok := f.(MatchAllFilter); ok {
			continue
		}
		must = append(must, f)
	}
	switch len(must) {
	case 0:
		return MatchAll()
	case 1:
		return must[0]
	default:
		return BoolFilter{Must: must}
	}
}

// Or combines filters disjunctively. With no arguments the result is MatchAll.
func Or(filters ...Filter) Filter {
	switch len(filters) {
	case 0:
		return MatchAll()
	case 1:
		return filters[0]
	default:
		return BoolFilter{Should: filters}
	}
}
