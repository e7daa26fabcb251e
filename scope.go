package fixt

import "github.com/fixt-dev/fixt/internal/scope"

type Scope = scope.Scope

const (
	ScopeTest    = scope.Test
	ScopeModule  = scope.Module
	ScopeSession = scope.Session
)
