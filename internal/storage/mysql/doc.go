// Package mysql provides MySQL-backed repositories for loads and call logs.
// It owns schema migrations and translates driver errors into the shared
// coded-error taxonomy before they reach the service layer.
package mysql
