package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DavideMichelon10/chess-data/internal/platform/httpx"
)

// FetchError wraps a failed month fetch. Status is 0 for network-level
// failures (Transient true); otherwise it is the upstream HTTP status.
type FetchError struct {
	Player    string
	Year      int
	Month     int
	Status    int
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Transient {
		return fmt.Sprintf("fetch %s %d/%02d: transient: %v", e.Player, e.Year, e.Month, e.Err)
	}
	return fmt.Sprintf("fetch %s %d/%02d: status %d", e.Player, e.Year, e.Month, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

func newFetchError(player string, year, month int, err error) *FetchError {
	fe := &FetchError{Player: player, Year: year, Month: month, Err: err}
	if code := httpx.StatusCode(err); code != 0 {
		fe.Status = code
	} else {
		fe.Transient = true
	}
	return fe
}

// StagingError marks a write failure to the staging area. Fatal for the
// player's run; nothing is loaded or committed.
type StagingError struct {
	Player string
	Err    error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging for %s failed: %v", e.Player, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// LoadError marks a failed warehouse load. The staged batches are retained
// and the watermark stays untouched.
type LoadError struct {
	Player string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("warehouse load for %s failed: %v", e.Player, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CommitError is the dangerous case: the warehouse load succeeded but the
// watermark write did not, so the listed days hold rows the watermark does
// not know about. A future run will re-stage them and duplicate warehouse
// rows unless the watermark is repaired first.
type CommitError struct {
	Player string
	Days   []string
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("watermark commit for %s failed after successful load (days: %s): %v",
		e.Player, strings.Join(e.Days, ","), e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// IsCommitError reports whether err carries a post-load watermark failure.
func IsCommitError(err error) bool {
	var ce *CommitError
	return errors.As(err, &ce)
}
