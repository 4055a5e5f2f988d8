package store

// Aggregation is a store-side reduction. The concrete types below are the only supported implementations.
type Aggregation interface {
	isAggregation()
}

// TermsAggregation partitions documents by the value of Field, keeping at most Size buckets
// ordered by descending document count, and evaluates Aggregations within each bucket.
type TermsAggregation struct {
	Field        string
	Size         int
	Aggregations map[string]Aggregation
}

type MaxAggregation struct {
	Field string
}

type ValueCountAggregation struct {
	Field string
}

// CardinalityAggregation counts distinct values of Field.
// Counts below PrecisionThreshold are expected to be close to exact.
type CardinalityAggregation struct {
	Field              string
	PrecisionThreshold int
}

func (TermsAggregation) isAggregation()       {}
func (MaxAggregation) isAggregation()         {}
func (ValueCountAggregation) isAggregation()  {}
func (CardinalityAggregation) isAggregation() {}
