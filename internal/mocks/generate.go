// Package mocks holds gomock doubles for the service's collaborators.
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_mock.go github.com/homedesigner/auth_service/internal/users Directory
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/homedesigner/auth_service/internal/storage SessionStore
