// Package supabase backs the authgate provider interfaces with a Supabase
// project: the GoTrue API for token verification, session refresh, and admin
// user lookup, plus local JWT verification of access tokens.
package supabase
