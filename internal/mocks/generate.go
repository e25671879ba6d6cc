// Package mocks provides mock implementations for testing the session layer.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the ports interfaces. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	store := mocks.NewMockSessionStore(ctrl)
//	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for SessionStore interface from internal/ports.
// This creates MockSessionStore with methods: Load, Save
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/openfintools/personalcapital/internal/ports SessionStore

// Generate mock for CodeProvider interface from internal/ports.
// This creates MockCodeProvider with methods: Code
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=code_provider_mock.go github.com/openfintools/personalcapital/internal/ports CodeProvider
