// Package volstore provides the shared vocabulary for talking to a remote
// hierarchical storage service: credentials and bearer tokens, volume handles,
// volume-relative paths and the errors returned when a remote call fails.
//
// The service is used in three steps. A user authenticates and receives a
// bearer token, a named directory-backed volume is allocated for the user, and
// the volume is then populated with directories and files addressed by
// slash-separated relative paths.
//
// # Key Components
//
//   - RelativePath: a validated, slash-separated path inside a volume
//   - DirectoryPlan: the ordered cumulative prefixes that must be created, parents first
//   - VolumeHandle: immutable description of an allocated volume
//   - RemoteError: a failed remote call with its kind, status and response body
//
// # Example Usage
//
//	p, err := volstore.ParsePath("a/b/c.dat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	parent, _ := p.Parent()
//	for _, prefix := range parent.DirectoryPlan() {
//	    fmt.Println(prefix) // a, a/b
//	}
//
// See the auth, provision and agent packages for the clients that perform the
// remote calls, and the sandbox package for a local simulation of the service.
package volstore
