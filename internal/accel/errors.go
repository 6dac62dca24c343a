package accel

import "errors"

var (
	ErrNotInitialized = errors.New("accel: not initialized")
	ErrNotOpen        = errors.New("accel: not open")
	ErrDataNotReady   = errors.New("accel: data not ready")
	ErrChipNotFound   = errors.New("accel: chip not found")
	ErrBadParameters  = errors.New("accel: bad parameters")
	ErrOther          = errors.New("accel: other error")
)

// Result is the discriminated outcome of a driver operation.
type Result uint8

const (
	Success Result = iota
	NotInitialized
	NotOpen
	DataNotReady
	ChipNotFound
	BadParameters
	OtherError
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case NotInitialized:
		return "not_initialized"
	case NotOpen:
		return "not_open"
	case DataNotReady:
		return "data_not_ready"
	case ChipNotFound:
		return "chip_not_found"
	case BadParameters:
		return "bad_parameters"
	}
	return "other_error"
}

// ResultOf classifies err. Unclassified errors are OtherError.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrNotInitialized):
		return NotInitialized
	case errors.Is(err, ErrNotOpen):
		return NotOpen
	case errors.Is(err, ErrDataNotReady):
		return DataNotReady
	case errors.Is(err, ErrChipNotFound):
		return ChipNotFound
	case errors.Is(err, ErrBadParameters):
		return BadParameters
	}
	return OtherError
}
