package tool

import "fmt"

// ErrToolNotFound is returned when a call names an unregistered tool.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

// ErrClientTool is returned when a client tool is executed locally. Client
// tools run in the frontend; the agent hands their calls back instead.
type ErrClientTool struct {
	Name string
}

func (e *ErrClientTool) Error() string {
	return fmt.Sprintf("tool: %s is a client tool", e.Name)
}

// ErrToolAlreadyRegistered is returned when a name is registered twice.
type ErrToolAlreadyRegistered struct {
	Name string
}

func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}

// ErrInvalidArguments wraps argument validation failures. Execute reports
// them to the model as error results so it can correct the call.
type ErrInvalidArguments struct {
	Name string
	Err  error
}

func (e *ErrInvalidArguments) Error() string {
	return fmt.Sprintf("tool: %s: invalid arguments: %v", e.Name, e.Err)
}

func (e *ErrInvalidArguments) Unwrap() error { return e.Err }
