// Copyright (c) 2024 Contributors to the Eclipse Foundation
//
// See the NOTICE file(s) distributed with this work for additional
// information regarding copyright ownership.
//
// This program and the accompanying materials are made available under the
// terms of the Apache Software License 2.0 which is available at
// https://www.apache.org/licenses/LICENSE-2.0, or the MIT license
// which is available at https://opensource.org/licenses/MIT.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package shmbus

import (
	"errors"
	"fmt"

	"github.com/shmbus/shmbus/internal/engine/registry"
)

// ContextualError wraps an error with additional context about the
// operation that produced it. It implements Unwrap for use with
// errors.Is and errors.As.
type ContextualError struct {
	Op  string
	Err error
}

func (e *ContextualError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

func (e *ContextualError) Unwrap() error { return e.Err }

// WrapError wraps err with operation context. Returns nil if err is nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ContextualError{Op: op, Err: err}
}

// Sentinel errors for common conditions. Use errors.Is to check for these.
var (
	ErrNodeClosed          = errors.New("shmbus: node is closed")
	ErrNodeBuilderConsumed = errors.New("shmbus: node builder already consumed")
	ErrPublisherClosed     = errors.New("shmbus: publisher is closed")
	ErrSubscriberClosed    = errors.New("shmbus: subscriber is closed")
	ErrSampleClosed        = errors.New("shmbus: sample is closed")
	ErrServiceClosed       = errors.New("shmbus: service is closed")
	ErrListenerClosed      = errors.New("shmbus: listener is closed")
	ErrNotifierClosed      = errors.New("shmbus: notifier is closed")
	ErrWaitSetClosed       = errors.New("shmbus: waitset is closed")
	ErrBuilderConsumed     = errors.New("shmbus: builder already consumed")
	ErrNilHandle           = errors.New("shmbus: nil handle")
	ErrHandleClosed        = errors.New("shmbus: handle is closed")

	// ErrNoData indicates the absence of data (no sample, no event); not
	// itself an error condition.
	ErrNoData = errors.New("shmbus: no data available")
)

// NodeCreationError represents errors creating a node.
type NodeCreationError int

const (
	NodeCreationErrorInsufficientPermissions NodeCreationError = iota
	NodeCreationErrorInternalError
)

func (e NodeCreationError) Error() string {
	switch e {
	case NodeCreationErrorInsufficientPermissions:
		return "node creation failed: insufficient permissions"
	case NodeCreationErrorInternalError:
		return "node creation failed: internal error"
	default:
		return fmt.Sprintf("node creation failed: unknown error (%d)", int(e))
	}
}

func (e NodeCreationError) Is(target error) bool { t, ok := target.(NodeCreationError); return ok && e == t }

// NodeWaitError represents errors waiting on a node.
type NodeWaitError int

const (
	NodeWaitErrorInterrupt NodeWaitError = iota
	NodeWaitErrorTerminationRequest
)

func (e NodeWaitError) Error() string {
	switch e {
	case NodeWaitErrorInterrupt:
		return "node wait failed: interrupted"
	case NodeWaitErrorTerminationRequest:
		return "node wait failed: termination requested"
	default:
		return fmt.Sprintf("node wait failed: unknown error (%d)", int(e))
	}
}

func (e NodeWaitError) Is(target error) bool { t, ok := target.(NodeWaitError); return ok && e == t }

// SemanticStringError represents name-validation errors.
type SemanticStringError int

const (
	SemanticStringErrorInvalidContent SemanticStringError = iota
	SemanticStringErrorExceedsMaximumLength
)

func (e SemanticStringError) Error() string {
	switch e {
	case SemanticStringErrorInvalidContent:
		return "semantic string error: invalid content"
	case SemanticStringErrorExceedsMaximumLength:
		return "semantic string error: exceeds maximum length"
	default:
		return fmt.Sprintf("semantic string error: unknown error (%d)", int(e))
	}
}

func (e SemanticStringError) Is(target error) bool {
	t, ok := target.(SemanticStringError)
	return ok && e == t
}

// PublisherCreateError represents errors creating a publisher.
type PublisherCreateError int

const (
	PublisherCreateErrorExceedsMaxSupportedPublishers PublisherCreateError = iota
	PublisherCreateErrorUnableToCreateDataSegment
)

func (e PublisherCreateError) Error() string {
	switch e {
	case PublisherCreateErrorExceedsMaxSupportedPublishers:
		return "publisher creation failed: exceeds max supported publishers"
	case PublisherCreateErrorUnableToCreateDataSegment:
		return "publisher creation failed: unable to create data segment"
	default:
		return fmt.Sprintf("publisher creation failed: unknown error (%d)", int(e))
	}
}

func (e PublisherCreateError) Is(target error) bool {
	t, ok := target.(PublisherCreateError)
	return ok && e == t
}

// SubscriberCreateError represents errors creating a subscriber.
type SubscriberCreateError int

const (
	SubscriberCreateErrorExceedsMaxSupportedSubscribers SubscriberCreateError = iota
	SubscriberCreateErrorBufferSizeExceedsMaxSupportedBufferSize
)

func (e SubscriberCreateError) Error() string {
	switch e {
	case SubscriberCreateErrorExceedsMaxSupportedSubscribers:
		return "subscriber creation failed: exceeds max supported subscribers"
	case SubscriberCreateErrorBufferSizeExceedsMaxSupportedBufferSize:
		return "subscriber creation failed: buffer size exceeds max supported buffer size"
	default:
		return fmt.Sprintf("subscriber creation failed: unknown error (%d)", int(e))
	}
}

func (e SubscriberCreateError) Is(target error) bool {
	t, ok := target.(SubscriberCreateError)
	return ok && e == t
}

// LoanError represents errors loaning a sample.
type LoanError int

const (
	LoanErrorOutOfMemory LoanError = iota
	LoanErrorExceedsMaxLoanedSamples
	LoanErrorExceedsMaxLoanSize
	LoanErrorInternalFailure
)

func (e LoanError) Error() string {
	switch e {
	case LoanErrorOutOfMemory:
		return "loan failed: out of memory"
	case LoanErrorExceedsMaxLoanedSamples:
		return "loan failed: exceeds max loaned samples"
	case LoanErrorExceedsMaxLoanSize:
		return "loan failed: exceeds max loan size"
	case LoanErrorInternalFailure:
		return "loan failed: internal failure"
	default:
		return fmt.Sprintf("loan failed: unknown error (%d)", int(e))
	}
}

func (e LoanError) Is(target error) bool { t, ok := target.(LoanError); return ok && e == t }

// SendError represents errors sending a sample.
type SendError int

const (
	SendErrorConnectionBroken SendError = iota
	SendErrorConnectionCorrupted
	SendErrorLoanOutOfMemory
	SendErrorLoanExceedsMaxLoans
	SendErrorConnectionError
)

func (e SendError) Error() string {
	switch e {
	case SendErrorConnectionBroken:
		return "send failed: connection broken since publisher no longer exists"
	case SendErrorConnectionCorrupted:
		return "send failed: connection corrupted"
	case SendErrorLoanOutOfMemory:
		return "send failed: loan out of memory"
	case SendErrorLoanExceedsMaxLoans:
		return "send failed: loan exceeds max loans"
	case SendErrorConnectionError:
		return "send failed: connection error"
	default:
		return fmt.Sprintf("send failed: unknown error (%d)", int(e))
	}
}

func (e SendError) Is(target error) bool { t, ok := target.(SendError); return ok && e == t }

// ReceiveError represents errors receiving a sample.
type ReceiveError int

const (
	ReceiveErrorExceedsMaxBorrows ReceiveError = iota
	ReceiveErrorFailedToEstablishConnection
	ReceiveErrorUnableToMapPublishersDataSegment
)

func (e ReceiveError) Error() string {
	switch e {
	case ReceiveErrorExceedsMaxBorrows:
		return "receive failed: exceeds max borrowed samples"
	case ReceiveErrorFailedToEstablishConnection:
		return "receive failed: failed to establish connection"
	case ReceiveErrorUnableToMapPublishersDataSegment:
		return "receive failed: unable to map publisher's data segment"
	default:
		return fmt.Sprintf("receive failed: unknown error (%d)", int(e))
	}
}

func (e ReceiveError) Is(target error) bool { t, ok := target.(ReceiveError); return ok && e == t }

// NotifierCreateError represents errors creating a notifier.
type NotifierCreateError int

const (
	NotifierCreateErrorExceedsMaxSupportedNotifiers NotifierCreateError = iota
)

func (e NotifierCreateError) Error() string {
	return "notifier creation failed: exceeds max supported notifiers"
}

func (e NotifierCreateError) Is(target error) bool {
	t, ok := target.(NotifierCreateError)
	return ok && e == t
}

// ListenerCreateError represents errors creating a listener.
type ListenerCreateError int

const (
	ListenerCreateErrorExceedsMaxSupportedListeners ListenerCreateError = iota
	ListenerCreateErrorResourceCreationFailed
)

func (e ListenerCreateError) Error() string {
	switch e {
	case ListenerCreateErrorExceedsMaxSupportedListeners:
		return "listener creation failed: exceeds max supported listeners"
	case ListenerCreateErrorResourceCreationFailed:
		return "listener creation failed: resource creation failed"
	default:
		return fmt.Sprintf("listener creation failed: unknown error (%d)", int(e))
	}
}

func (e ListenerCreateError) Is(target error) bool {
	t, ok := target.(ListenerCreateError)
	return ok && e == t
}

// NotifierNotifyError represents errors notifying.
type NotifierNotifyError int

const (
	NotifierNotifyErrorEventIdOutOfBounds NotifierNotifyError = iota
)

func (e NotifierNotifyError) Error() string { return "notify failed: event id out of bounds" }

func (e NotifierNotifyError) Is(target error) bool {
	t, ok := target.(NotifierNotifyError)
	return ok && e == t
}

// MissedDeadline is a soft error: the notification still delivered, but
// the configured deadline elapsed since the previous notify.
var MissedDeadline = errors.New("shmbus: missed deadline")

// ListenerWaitError represents errors waiting on a listener.
type ListenerWaitError int

const (
	ListenerWaitErrorContractViolation ListenerWaitError = iota
	ListenerWaitErrorInternalFailure
	ListenerWaitErrorInterruptSignal
)

func (e ListenerWaitError) Error() string {
	switch e {
	case ListenerWaitErrorContractViolation:
		return "listener wait failed: contract violation"
	case ListenerWaitErrorInternalFailure:
		return "listener wait failed: internal failure"
	case ListenerWaitErrorInterruptSignal:
		return "listener wait failed: interrupt signal"
	default:
		return fmt.Sprintf("listener wait failed: unknown error (%d)", int(e))
	}
}

func (e ListenerWaitError) Is(target error) bool {
	t, ok := target.(ListenerWaitError)
	return ok && e == t
}

// PubSubOpenOrCreateError enumerates publish-subscribe service
// open/create failures, mapped 1:1 from the internal registry's
// compatibility and creation-protocol error kinds (spec.md §4.1, §7).
type PubSubOpenOrCreateError int

const (
	PubSubOpenOrCreateErrorDoesNotExist PubSubOpenOrCreateError = iota
	PubSubOpenOrCreateErrorIncompatibleMessagingPattern
	PubSubOpenOrCreateErrorIncompatibleTypes
	PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfPublishers
	PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfSubscribers
	PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfNodes
	PubSubOpenOrCreateErrorDoesNotSupportRequestedHistorySize
	PubSubOpenOrCreateErrorDoesNotSupportRequestedBufferSize
	PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfBorrowedSamples
	PubSubOpenOrCreateErrorIncompatibleOverflowBehavior
	PubSubOpenOrCreateErrorIncompatibleAttributes
	PubSubOpenOrCreateErrorExceedsMaxNumberOfNodes
	PubSubOpenOrCreateErrorIsBeingCreatedByAnotherInstance
	PubSubOpenOrCreateErrorAlreadyExists
	PubSubOpenOrCreateErrorOldConnectionsStillActive
	PubSubOpenOrCreateErrorServiceInCorruptedState
	PubSubOpenOrCreateErrorInternalFailure
)

func (e PubSubOpenOrCreateError) Error() string {
	switch e {
	case PubSubOpenOrCreateErrorDoesNotExist:
		return "pub-sub service open/create failed: does not exist"
	case PubSubOpenOrCreateErrorIncompatibleMessagingPattern:
		return "pub-sub service open/create failed: incompatible messaging pattern"
	case PubSubOpenOrCreateErrorIncompatibleTypes:
		return "pub-sub service open/create failed: incompatible types"
	case PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfPublishers:
		return "pub-sub service open/create failed: does not support requested amount of publishers"
	case PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfSubscribers:
		return "pub-sub service open/create failed: does not support requested amount of subscribers"
	case PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfNodes:
		return "pub-sub service open/create failed: does not support requested amount of nodes"
	case PubSubOpenOrCreateErrorDoesNotSupportRequestedHistorySize:
		return "pub-sub service open/create failed: does not support requested history size"
	case PubSubOpenOrCreateErrorDoesNotSupportRequestedBufferSize:
		return "pub-sub service open/create failed: does not support requested buffer size"
	case PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfBorrowedSamples:
		return "pub-sub service open/create failed: does not support requested amount of borrowed samples"
	case PubSubOpenOrCreateErrorIncompatibleOverflowBehavior:
		return "pub-sub service open/create failed: incompatible overflow behavior"
	case PubSubOpenOrCreateErrorIncompatibleAttributes:
		return "pub-sub service open/create failed: incompatible attributes"
	case PubSubOpenOrCreateErrorExceedsMaxNumberOfNodes:
		return "pub-sub service open/create failed: exceeds max number of nodes"
	case PubSubOpenOrCreateErrorIsBeingCreatedByAnotherInstance:
		return "pub-sub service open/create failed: is being created by another instance"
	case PubSubOpenOrCreateErrorAlreadyExists:
		return "pub-sub service open/create failed: already exists"
	case PubSubOpenOrCreateErrorOldConnectionsStillActive:
		return "pub-sub service open/create failed: old connections still active"
	case PubSubOpenOrCreateErrorServiceInCorruptedState:
		return "pub-sub service open/create failed: service in corrupted state"
	default:
		return "pub-sub service open/create failed: internal failure"
	}
}

func (e PubSubOpenOrCreateError) Is(target error) bool {
	t, ok := target.(PubSubOpenOrCreateError)
	return ok && e == t
}

// pubSubErrorFromRegistry maps the internal registry's error kinds onto
// the public PubSubOpenOrCreateError taxonomy.
func pubSubErrorFromRegistry(err error) error {
	switch err {
	case registry.OpenErrorDoesNotExist:
		return PubSubOpenOrCreateErrorDoesNotExist
	case registry.OpenErrorIncompatibleMessagingPattern:
		return PubSubOpenOrCreateErrorIncompatibleMessagingPattern
	case registry.OpenErrorIncompatibleTypes:
		return PubSubOpenOrCreateErrorIncompatibleTypes
	case registry.OpenErrorDoesNotSupportRequestedAmountOfPublishers:
		return PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfPublishers
	case registry.OpenErrorDoesNotSupportRequestedAmountOfSubscribers:
		return PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfSubscribers
	case registry.OpenErrorDoesNotSupportRequestedAmountOfNodes:
		return PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfNodes
	case registry.OpenErrorDoesNotSupportRequestedHistorySize:
		return PubSubOpenOrCreateErrorDoesNotSupportRequestedHistorySize
	case registry.OpenErrorDoesNotSupportRequestedBufferSize:
		return PubSubOpenOrCreateErrorDoesNotSupportRequestedBufferSize
	case registry.OpenErrorDoesNotSupportRequestedAmountOfBorrowedSamples:
		return PubSubOpenOrCreateErrorDoesNotSupportRequestedAmountOfBorrowedSamples
	case registry.OpenErrorIncompatibleOverflowBehavior:
		return PubSubOpenOrCreateErrorIncompatibleOverflowBehavior
	case registry.OpenErrorIncompatibleAttributes:
		return PubSubOpenOrCreateErrorIncompatibleAttributes
	case registry.OpenErrorExceedsMaxNumberOfNodes:
		return PubSubOpenOrCreateErrorExceedsMaxNumberOfNodes
	case registry.OpenErrorServiceInCorruptedState:
		return PubSubOpenOrCreateErrorServiceInCorruptedState
	case registry.CreateErrorIsBeingCreatedByAnotherInstance:
		return PubSubOpenOrCreateErrorIsBeingCreatedByAnotherInstance
	case registry.CreateErrorAlreadyExists:
		return PubSubOpenOrCreateErrorAlreadyExists
	case registry.CreateErrorOldConnectionsStillActive:
		return PubSubOpenOrCreateErrorOldConnectionsStillActive
	default:
		return PubSubOpenOrCreateErrorInternalFailure
	}
}

// EventOpenOrCreateError enumerates event service open/create failures,
// mapped 1:1 from the internal registry's error kinds.
type EventOpenOrCreateError int

const (
	EventOpenOrCreateErrorDoesNotExist EventOpenOrCreateError = iota
	EventOpenOrCreateErrorIncompatibleMessagingPattern
	EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfNotifiers
	EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfListeners
	EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfNodes
	EventOpenOrCreateErrorIncompatibleAttributes
	EventOpenOrCreateErrorExceedsMaxNumberOfNodes
	EventOpenOrCreateErrorIsBeingCreatedByAnotherInstance
	EventOpenOrCreateErrorAlreadyExists
	EventOpenOrCreateErrorInternalFailure
)

func (e EventOpenOrCreateError) Error() string {
	switch e {
	case EventOpenOrCreateErrorDoesNotExist:
		return "event service open/create failed: does not exist"
	case EventOpenOrCreateErrorIncompatibleMessagingPattern:
		return "event service open/create failed: incompatible messaging pattern"
	case EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfNotifiers:
		return "event service open/create failed: does not support requested amount of notifiers"
	case EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfListeners:
		return "event service open/create failed: does not support requested amount of listeners"
	case EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfNodes:
		return "event service open/create failed: does not support requested amount of nodes"
	case EventOpenOrCreateErrorIncompatibleAttributes:
		return "event service open/create failed: incompatible attributes"
	case EventOpenOrCreateErrorExceedsMaxNumberOfNodes:
		return "event service open/create failed: exceeds max number of nodes"
	case EventOpenOrCreateErrorIsBeingCreatedByAnotherInstance:
		return "event service open/create failed: is being created by another instance"
	case EventOpenOrCreateErrorAlreadyExists:
		return "event service open/create failed: already exists"
	default:
		return "event service open/create failed: internal failure"
	}
}

func (e EventOpenOrCreateError) Is(target error) bool {
	t, ok := target.(EventOpenOrCreateError)
	return ok && e == t
}

func eventErrorFromRegistry(err error) error {
	switch err {
	case registry.OpenErrorDoesNotExist:
		return EventOpenOrCreateErrorDoesNotExist
	case registry.OpenErrorIncompatibleMessagingPattern:
		return EventOpenOrCreateErrorIncompatibleMessagingPattern
	case registry.OpenErrorDoesNotSupportRequestedAmountOfNotifiers:
		return EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfNotifiers
	case registry.OpenErrorDoesNotSupportRequestedAmountOfListeners:
		return EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfListeners
	case registry.OpenErrorDoesNotSupportRequestedAmountOfNodes:
		return EventOpenOrCreateErrorDoesNotSupportRequestedAmountOfNodes
	case registry.OpenErrorIncompatibleAttributes:
		return EventOpenOrCreateErrorIncompatibleAttributes
	case registry.OpenErrorExceedsMaxNumberOfNodes:
		return EventOpenOrCreateErrorExceedsMaxNumberOfNodes
	case registry.CreateErrorIsBeingCreatedByAnotherInstance:
		return EventOpenOrCreateErrorIsBeingCreatedByAnotherInstance
	case registry.CreateErrorAlreadyExists:
		return EventOpenOrCreateErrorAlreadyExists
	default:
		return EventOpenOrCreateErrorInternalFailure
	}
}

// TypeDetailError represents errors describing a payload or user-header type.
type TypeDetailError int

const (
	TypeDetailErrorInvalidTypeName TypeDetailError = iota
	TypeDetailErrorInvalidSizeOrAlignmentValue
)

func (e TypeDetailError) Error() string {
	switch e {
	case TypeDetailErrorInvalidTypeName:
		return "type detail error: invalid type name"
	default:
		return "type detail error: invalid size or alignment value"
	}
}

func (e TypeDetailError) Is(target error) bool { t, ok := target.(TypeDetailError); return ok && e == t }

// WaitSetCreateError represents errors creating a waitset.
type WaitSetCreateError int

const (
	WaitSetCreateErrorInternalError WaitSetCreateError = iota
	WaitSetCreateErrorInsufficientResources
)

func (e WaitSetCreateError) Error() string {
	if e == WaitSetCreateErrorInsufficientResources {
		return "waitset creation failed: insufficient resources"
	}
	return "waitset creation failed: internal error"
}

func (e WaitSetCreateError) Is(target error) bool {
	t, ok := target.(WaitSetCreateError)
	return ok && e == t
}

// WaitSetRunError represents errors during a waitset run.
type WaitSetRunError int

const (
	WaitSetRunErrorInsufficientPermissions WaitSetRunError = iota
	WaitSetRunErrorInternalError
	WaitSetRunErrorNoAttachments
	WaitSetRunErrorTerminationRequest
	WaitSetRunErrorInterrupt
	WaitSetRunErrorStopRequest
)

func (e WaitSetRunError) Error() string {
	switch e {
	case WaitSetRunErrorInsufficientPermissions:
		return "waitset run failed: insufficient permissions"
	case WaitSetRunErrorInternalError:
		return "waitset run failed: internal error"
	case WaitSetRunErrorNoAttachments:
		return "waitset run failed: no attachments"
	case WaitSetRunErrorTerminationRequest:
		return "waitset run failed: termination request"
	case WaitSetRunErrorInterrupt:
		return "waitset run failed: interrupt"
	default:
		return "waitset run failed: stop request"
	}
}

func (e WaitSetRunError) Is(target error) bool { t, ok := target.(WaitSetRunError); return ok && e == t }

// WaitSetAttachmentError represents errors attaching to a waitset.
type WaitSetAttachmentError int

const (
	WaitSetAttachmentErrorInsufficientCapacity WaitSetAttachmentError = iota
	WaitSetAttachmentErrorAlreadyAttached
	WaitSetAttachmentErrorInternalError
	WaitSetAttachmentErrorInsufficientResources
)

func (e WaitSetAttachmentError) Error() string {
	switch e {
	case WaitSetAttachmentErrorInsufficientCapacity:
		return "waitset attachment failed: insufficient capacity"
	case WaitSetAttachmentErrorAlreadyAttached:
		return "waitset attachment failed: already attached"
	case WaitSetAttachmentErrorInternalError:
		return "waitset attachment failed: internal error"
	default:
		return "waitset attachment failed: insufficient resources"
	}
}

func (e WaitSetAttachmentError) Is(target error) bool {
	t, ok := target.(WaitSetAttachmentError)
	return ok && e == t
}

// ServiceListError represents errors listing services.
type ServiceListError int

const (
	ServiceListErrorInsufficientPermissions ServiceListError = iota
	ServiceListErrorInternalError
)

func (e ServiceListError) Error() string {
	if e == ServiceListErrorInsufficientPermissions {
		return "service list failed: insufficient permissions"
	}
	return "service list failed: internal error"
}

func (e ServiceListError) Is(target error) bool { t, ok := target.(ServiceListError); return ok && e == t }

// ServiceDetailsError represents errors reading a service's details.
type ServiceDetailsError int

const (
	ServiceDetailsErrorFailedToOpenStaticServiceInfo ServiceDetailsError = iota
	ServiceDetailsErrorFailedToReadStaticServiceInfo
	ServiceDetailsErrorFailedToDeserializeStaticServiceInfo
	ServiceDetailsErrorServiceInInconsistentState
	ServiceDetailsErrorVersionMismatch
	ServiceDetailsErrorInternalError
)

func (e ServiceDetailsError) Error() string {
	switch e {
	case ServiceDetailsErrorFailedToOpenStaticServiceInfo:
		return "service details failed: failed to open static service info"
	case ServiceDetailsErrorFailedToReadStaticServiceInfo:
		return "service details failed: failed to read static service info"
	case ServiceDetailsErrorFailedToDeserializeStaticServiceInfo:
		return "service details failed: failed to deserialize static service info"
	case ServiceDetailsErrorServiceInInconsistentState:
		return "service details failed: service in inconsistent state"
	case ServiceDetailsErrorVersionMismatch:
		return "service details failed: version mismatch"
	default:
		return "service details failed: internal error"
	}
}

func (e ServiceDetailsError) Is(target error) bool {
	t, ok := target.(ServiceDetailsError)
	return ok && e == t
}

// AttributeDefinitionError represents errors defining attributes.
type AttributeDefinitionError int

const (
	AttributeDefinitionErrorExceedsMaxSupportedAttributes AttributeDefinitionError = iota
)

func (e AttributeDefinitionError) Error() string {
	return "attribute definition failed: exceeds max supported attributes"
}

func (e AttributeDefinitionError) Is(target error) bool {
	t, ok := target.(AttributeDefinitionError)
	return ok && e == t
}

// AttributeVerificationError represents errors verifying attributes.
type AttributeVerificationError int

const (
	AttributeVerificationErrorNonExistingKey AttributeVerificationError = iota
	AttributeVerificationErrorIncompatibleAttribute
)

func (e AttributeVerificationError) Error() string {
	if e == AttributeVerificationErrorNonExistingKey {
		return "attribute verification failed: non-existing key"
	}
	return "attribute verification failed: incompatible attribute"
}

func (e AttributeVerificationError) Is(target error) bool {
	t, ok := target.(AttributeVerificationError)
	return ok && e == t
}

// NodeListError represents errors listing nodes.
type NodeListError int

const (
	NodeListErrorInsufficientPermissions NodeListError = iota
	NodeListErrorInterrupt
	NodeListErrorInternalError
)

func (e NodeListError) Error() string {
	switch e {
	case NodeListErrorInsufficientPermissions:
		return "node list failed: insufficient permissions"
	case NodeListErrorInterrupt:
		return "node list failed: interrupted"
	default:
		return "node list failed: internal error"
	}
}

func (e NodeListError) Is(target error) bool { t, ok := target.(NodeListError); return ok && e == t }

// NodeCleanupError represents errors cleaning up stale resources.
type NodeCleanupError int

const (
	NodeCleanupErrorInterrupt NodeCleanupError = iota
	NodeCleanupErrorInternalError
	NodeCleanupErrorInsufficientPermissions
	NodeCleanupErrorVersionMismatch
)

func (e NodeCleanupError) Error() string {
	switch e {
	case NodeCleanupErrorInterrupt:
		return "node cleanup failed: interrupted"
	case NodeCleanupErrorInternalError:
		return "node cleanup failed: internal error"
	case NodeCleanupErrorInsufficientPermissions:
		return "node cleanup failed: insufficient permissions"
	default:
		return "node cleanup failed: version mismatch"
	}
}

func (e NodeCleanupError) Is(target error) bool { t, ok := target.(NodeCleanupError); return ok && e == t }

// ConnectionFailure represents connection-establishment errors.
type ConnectionFailure int

const (
	ConnectionFailureFailedToEstablish ConnectionFailure = iota
	ConnectionFailureUnableToMapDataSegment
)

func (e ConnectionFailure) Error() string {
	if e == ConnectionFailureFailedToEstablish {
		return "connection failure: failed to establish connection"
	}
	return "connection failure: unable to map publisher's data segment"
}

func (e ConnectionFailure) Is(target error) bool { t, ok := target.(ConnectionFailure); return ok && e == t }
