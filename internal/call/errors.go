package call

import "errors"

var (
	ErrSessionBusy          = errors.New("call: a call is already connecting or active")
	ErrSessionFinished      = errors.New("call: session already finished")
	ErrNotActive            = errors.New("call: session is not active")
	ErrEmptyText            = errors.New("call: text is empty")
	ErrTextTooLong          = errors.New("call: text exceeds 500 characters")
	ErrInvalidForm          = errors.New("call: invalid interview form")
	ErrNotGenerateMode      = errors.New("call: provisioning is only available in generate mode")
	ErrProvisioningInFlight = errors.New("call: interview creation already in progress")
	ErrProvisioningFailed   = errors.New("call: interview creation failed")
	ErrStartFailed          = errors.New("call: voice agent did not start")
)
