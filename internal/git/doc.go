// Package git drives the external git client for the document bridge.
//
// Every operation works on its own Workspace: a fresh clone in a private
// temporary directory that the caller releases when it is done. Nothing is
// shared between operations and nothing survives them.
//
// Key Components:
//
// Runner: executes one git invocation and returns its exit code together
// with the captured standard output and error. ExecRunner is the subprocess
// implementation; tests substitute their own.
//
// Cloner: validates project credentials, builds the token-authenticated
// URL and clones it into a new Workspace.
//
// Workspace: file access scoped to the clone (read, write, list) and the
// Release call that deletes it.
//
// Publisher: stages one path, commits it and pushes to the primary branch,
// falling back once to a secondary branch.
//
// Example Usage:
//
//	cloner := &git.Cloner{Runner: &git.ExecRunner{Timeout: 2 * time.Minute}}
//	ws, err := cloner.Acquire(ctx, creds)
//	if err != nil {
//	    return err
//	}
//	defer ws.Release()
//
//	if err := ws.WriteFile("main.tex", content); err != nil {
//	    return err
//	}
//	result, err := (&git.Publisher{}).Publish(ctx, ws, git.PublishOptions{
//	    Path:    "main.tex",
//	    Message: "Update main.tex",
//	})
//
// Error Handling:
//
// Failures are reported as *errors.BridgeError values classified by kind
// (configuration, clone failure, file not found, publish failure). When the
// git client exited non-zero the error carries its full output, with the
// access token redacted.
//
// Thread Safety:
//
// A Workspace belongs to a single operation and must not be shared. Runners
// and Cloners hold no per-operation state and may be reused.
package git
