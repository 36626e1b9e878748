package engine

import "errors"

// ErrSuperseded is returned by a recomputation whose result was discarded
// because a newer change started while its fetches were in flight. The newer
// pass owns the published state; callers should simply drop this result.
var ErrSuperseded = errors.New("recomputation superseded by a newer change")
