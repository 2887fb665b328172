package core

import "context"

// MockInspector is a mock implementation of Inspector for testing
type MockInspector struct {
	ValidateFunc func(ctx context.Context, path string) bool
	FieldFunc    func(ctx context.Context, path, field string) string
}

// Name implements Inspector.Name
func (m *MockInspector) Name() string {
	return "mock"
}

// Validate implements Inspector.Validate
func (m *MockInspector) Validate(ctx context.Context, path string) bool {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, path)
	}
	return true
}

// Field implements Inspector.Field
func (m *MockInspector) Field(ctx context.Context, path, field string) string {
	if m.FieldFunc != nil {
		return m.FieldFunc(ctx, path, field)
	}
	return ""
}

// MockStateLookup is a mock implementation of StateLookup for testing
type MockStateLookup struct {
	LookupFunc func(ctx context.Context, name string) (*InstalledState, error)
	ReloadFunc func() error
}

// Name implements StateLookup.Name
func (m *MockStateLookup) Name() string {
	return "mock"
}

// Lookup implements StateLookup.Lookup
func (m *MockStateLookup) Lookup(ctx context.Context, name string) (*InstalledState, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, name)
	}
	return nil, nil
}

// Reload mirrors the reload hook of caching lookups
func (m *MockStateLookup) Reload() error {
	if m.ReloadFunc != nil {
		return m.ReloadFunc()
	}
	return nil
}

// MockChecker is a mock implementation of Checker for testing
type MockChecker struct {
	CheckFunc func(ctx context.Context, path string, info PackageInfo) CheckResult
}

// Check implements Checker.Check
func (m *MockChecker) Check(ctx context.Context, path string, info PackageInfo) CheckResult {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, path, info)
	}
	return CheckResult{Installable: true}
}

// MockExecutor is a mock implementation of Executor for testing. Without a
// StartFunc it emits Output chunks followed by Result.
type MockExecutor struct {
	StartFunc func(ctx context.Context, path string) (<-chan InstallEvent, error)
	Output    []string
	Result    InstallResult
}

// Start implements Executor.Start
func (m *MockExecutor) Start(ctx context.Context, path string) (<-chan InstallEvent, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, path)
	}

	events := make(chan InstallEvent, len(m.Output)+1)
	for _, out := range m.Output {
		events <- InstallEvent{Output: out}
	}
	result := m.Result
	events <- InstallEvent{Result: &result}
	close(events)
	return events, nil
}
