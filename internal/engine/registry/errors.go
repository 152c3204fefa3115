package registry

import "fmt"

// CreateError enumerates the ways registry.Create can fail, matching the
// error kinds spec.md §4.1's create protocol names.
type CreateError int

const (
	CreateErrorIsBeingCreatedByAnotherInstance CreateError = iota
	CreateErrorAlreadyExists
	CreateErrorOldConnectionsStillActive
	CreateErrorInternalFailure
)

func (e CreateError) Error() string {
	switch e {
	case CreateErrorIsBeingCreatedByAnotherInstance:
		return "service create failed: is being created by another instance"
	case CreateErrorAlreadyExists:
		return "service create failed: already exists"
	case CreateErrorOldConnectionsStillActive:
		return "service create failed: old connections still active"
	case CreateErrorInternalFailure:
		return "service create failed: internal failure"
	default:
		return fmt.Sprintf("service create failed: unknown error (%d)", int(e))
	}
}

func (e CreateError) Is(target error) bool {
	t, ok := target.(CreateError)
	return ok && e == t
}

// OpenError enumerates the ways registry.Open can fail.
type OpenError int

const (
	OpenErrorDoesNotExist OpenError = iota
	OpenErrorIncompatibleMessagingPattern
	OpenErrorIncompatibleTypes
	OpenErrorDoesNotSupportRequestedAmountOfPublishers
	OpenErrorDoesNotSupportRequestedAmountOfSubscribers
	OpenErrorDoesNotSupportRequestedAmountOfNodes
	OpenErrorDoesNotSupportRequestedHistorySize
	OpenErrorDoesNotSupportRequestedBufferSize
	OpenErrorDoesNotSupportRequestedAmountOfBorrowedSamples
	OpenErrorDoesNotSupportRequestedAmountOfNotifiers
	OpenErrorDoesNotSupportRequestedAmountOfListeners
	OpenErrorIncompatibleOverflowBehavior
	OpenErrorIncompatibleAttributes
	OpenErrorExceedsMaxNumberOfNodes
	OpenErrorServiceInCorruptedState
	OpenErrorVersionMismatch
	OpenErrorInternalFailure
)

func (e OpenError) Error() string {
	switch e {
	case OpenErrorDoesNotExist:
		return "service open failed: does not exist"
	case OpenErrorIncompatibleMessagingPattern:
		return "service open failed: incompatible messaging pattern"
	case OpenErrorIncompatibleTypes:
		return "service open failed: incompatible types"
	case OpenErrorDoesNotSupportRequestedAmountOfPublishers:
		return "service open failed: does not support requested amount of publishers"
	case OpenErrorDoesNotSupportRequestedAmountOfSubscribers:
		return "service open failed: does not support requested amount of subscribers"
	case OpenErrorDoesNotSupportRequestedAmountOfNodes:
		return "service open failed: does not support requested amount of nodes"
	case OpenErrorDoesNotSupportRequestedHistorySize:
		return "service open failed: does not support requested history size"
	case OpenErrorDoesNotSupportRequestedBufferSize:
		return "service open failed: does not support requested buffer size"
	case OpenErrorDoesNotSupportRequestedAmountOfBorrowedSamples:
		return "service open failed: does not support requested amount of borrowed samples"
	case OpenErrorDoesNotSupportRequestedAmountOfNotifiers:
		return "service open failed: does not support requested amount of notifiers"
	case OpenErrorDoesNotSupportRequestedAmountOfListeners:
		return "service open failed: does not support requested amount of listeners"
	case OpenErrorIncompatibleOverflowBehavior:
		return "service open failed: incompatible overflow behavior"
	case OpenErrorIncompatibleAttributes:
		return "service open failed: incompatible attributes"
	case OpenErrorExceedsMaxNumberOfNodes:
		return "service open failed: exceeds max number of nodes"
	case OpenErrorServiceInCorruptedState:
		return "service open failed: service in corrupted state"
	case OpenErrorVersionMismatch:
		return "service open failed: version mismatch"
	case OpenErrorInternalFailure:
		return "service open failed: internal failure"
	default:
		return fmt.Sprintf("service open failed: unknown error (%d)", int(e))
	}
}

func (e OpenError) Is(target error) bool {
	t, ok := target.(OpenError)
	return ok && e == t
}

// OpenOrCreateError wraps whichever of OpenError/CreateError was the last
// cause when open_or_create's bounded retry budget is exhausted.
type OpenOrCreateError struct {
	LastOpenErr   error
	LastCreateErr error
}

func (e *OpenOrCreateError) Error() string {
	return fmt.Sprintf("service open_or_create failed after retries: open=%v create=%v", e.LastOpenErr, e.LastCreateErr)
}

// ServiceListError enumerates List failures.
type ServiceListError int

const (
	ServiceListErrorInsufficientPermissions ServiceListError = iota
	ServiceListErrorInternalError
)

func (e ServiceListError) Error() string {
	switch e {
	case ServiceListErrorInsufficientPermissions:
		return "service list failed: insufficient permissions"
	default:
		return "service list failed: internal error"
	}
}

func (e ServiceListError) Is(target error) bool {
	t, ok := target.(ServiceListError)
	return ok && e == t
}
