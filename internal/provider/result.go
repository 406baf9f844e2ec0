package provider

// Result is the discriminated success/failure envelope every single-value
// operation returns. Exactly one of Data/Error is meaningful, determined
// by Success.
type Result[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *ProviderError `json:"error,omitempty"`
}

// ListResult is the envelope for list-shaped operations. Items is an empty
// slice, never nil, on success. Total and HasMore are pagination hints.
type ListResult[T any] struct {
	Success bool           `json:"success"`
	Items   []T            `json:"items"`
	Total   int            `json:"total,omitempty"`
	HasMore bool           `json:"has_more,omitempty"`
	Error   *ProviderError `json:"error,omitempty"`
}

// The constructors below are the only sanctioned way to build results.
// Adapters must not hand-roll the envelope shape, so the field discipline
// (exactly one of data/error) cannot drift between providers.

// Ok wraps a successful outcome.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail wraps a failure with a fresh error.
func Fail[T any](code, message string) Result[T] {
	return Result[T]{Success: false, Error: NewError(code, message)}
}

// FailWith wraps a failure around an existing error.
func FailWith[T any](err *ProviderError) Result[T] {
	if err == nil {
		err = NewError(ErrProviderError, "unknown provider failure")
	}
	return Result[T]{Success: false, Error: err}
}

// OkList wraps a successful list outcome. A nil items slice is normalized
// to an empty one.
func OkList[T any](items []T) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{Success: true, Items: items}
}

// OkPage wraps a successful list outcome with pagination hints.
func OkPage[T any](items []T, total int, hasMore bool) ListResult[T] {
	out := OkList(items)
	out.Total = total
	out.HasMore = hasMore
	return out
}

// FailList wraps a list failure with a fresh error.
func FailList[T any](code, message string) ListResult[T] {
	return ListResult[T]{Success: false, Items: []T{}, Error: NewError(code, message)}
}

// FailListWith wraps a list failure around an existing error.
func FailListWith[T any](err *ProviderError) ListResult[T] {
	if err == nil {
		err = NewError(ErrProviderError, "unknown provider failure")
	}
	return ListResult[T]{Success: false, Items: []T{}, Error: err}
}
