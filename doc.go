// Package personalcapital is an unofficial Go client for the Personal
// Capital (Empower) dashboard's private web API.
//
// The upstream has no public API: this client speaks the same private
// endpoints the web dashboard uses, including its csrf token rotation,
// multi-factor challenge sequence, and response envelope. A Session owns
// one authenticated relationship with the upstream and exposes the login
// flows and the data calls built on top of them.
//
// Basic use:
//
//	cfg, err := personalcapital.LoadConfig()
//	if err != nil { ... }
//	s, err := personalcapital.New(ctx, cfg)
//	if err != nil { ... }
//	if err := s.Login(ctx, personalcapital.Credentials{
//	    Email:    "user@example.com",
//	    Password: password,
//	}); err != nil { ... }
//	accounts, err := s.Accounts(ctx)
//
// Sessions persist across runs: after a successful login the cookies are
// cached (file or Redis backend), and a later New hydrates from the cache
// so data calls work without repeating the multi-factor challenge.
//
// A Session is not safe for concurrent use. The client owns none of the
// upstream's contract; endpoints, payload schemas, and page markup can
// change without notice.
package personalcapital
