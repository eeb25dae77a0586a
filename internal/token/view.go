// Package token caches the last fetched token facts and refreshes them from a
// contract reader.
package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Mohsinsiddi/tokendesk/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Facts is one immutable snapshot of displayed token state. Amounts are
// base-10 integer strings in base units.
type Facts struct {
	Name        string
	Decimals    uint8
	TotalSupply string
	Balance     string
	Account     string // owner of Balance; empty until a balance was read
}

// Zero is the state shown before any read succeeded.
func Zero() Facts {
	return Facts{TotalSupply: "0", Balance: "0"}
}

// Reader issues read-only contract calls.
type Reader interface {
	Call(ctx context.Context, method string, args ...string) ([]string, error)
}

const (
	fieldName = iota
	fieldDecimals
	fieldSupply
	fieldBalance
	numFields
)

// View holds the current Facts. Every refresh draws a ticket; a field is only
// overwritten by a result carrying a newer ticket than the one that last set
// it, so a slow refresh never clobbers a faster, later one.
type View struct {
	facts  atomic.Pointer[Facts]
	ticket atomic.Uint64
	log    logging.Logger

	mu      sync.Mutex
	applied [numFields]uint64
}

// NewView returns a view holding Zero facts.
func NewView(log logging.Logger) *View {
	v := &View{log: logging.OrNop(log)}
	z := Zero()
	v.facts.Store(&z)
	return v
}

// Snapshot returns the current facts.
func (v *View) Snapshot() Facts {
	return *v.facts.Load()
}

type update struct {
	ticket  uint64
	set     [numFields]bool
	name    string
	dec     uint8
	supply  string
	balance string
	account string
}

// Refresh reads name, decimals, totalSupply and, when account is non-empty,
// balanceOf(account) concurrently. Reads that succeed are applied even if
// others fail; the failures are joined into the returned error.
func (v *View) Refresh(ctx context.Context, r Reader, account string) (Facts, error) {
	u := update{ticket: v.ticket.Add(1), account: account}

	var (
		g    errgroup.Group
		errs [numFields]error
	)
	g.Go(func() error {
		out, err := readOne(ctx, r, "name")
		if err == nil {
			u.name, u.set[fieldName] = out, true
		}
		errs[fieldName] = err
		return err
	})
	g.Go(func() error {
		out, err := readOne(ctx, r, "decimals")
		if err == nil {
			var d uint64
			d, err = strconv.ParseUint(out, 10, 8)
			if err == nil {
				u.dec, u.set[fieldDecimals] = uint8(d), true
			} else {
				err = fmt.Errorf("decimals: %w", err)
			}
		}
		errs[fieldDecimals] = err
		return err
	})
	g.Go(func() error {
		out, err := readOne(ctx, r, "totalSupply")
		if err == nil {
			u.supply, u.set[fieldSupply] = out, true
		}
		errs[fieldSupply] = err
		return err
	})
	if account != "" {
		g.Go(func() error {
			out, err := readOne(ctx, r, "balanceOf", account)
			if err == nil {
				u.balance, u.set[fieldBalance] = out, true
			}
			errs[fieldBalance] = err
			return err
		})
	}
	// Wait reports only the first error; all of them are joined below.
	_ = g.Wait()

	facts := v.merge(u)
	err := errors.Join(errs[:]...)
	if err != nil {
		v.log.Warn("token refresh incomplete", "account", account, "error", err)
	}
	return facts, err
}

// RefreshBalance re-reads only balanceOf(account). Overlapping calls resolve
// last-write-wins by ticket.
func (v *View) RefreshBalance(ctx context.Context, r Reader, account string) (Facts, error) {
	if account == "" {
		return v.Snapshot(), errors.New("balance refresh needs an account")
	}
	u := update{ticket: v.ticket.Add(1), account: account}
	out, err := readOne(ctx, r, "balanceOf", account)
	if err != nil {
		v.log.Warn("balance refresh failed", "account", account, "error", err)
		return v.Snapshot(), err
	}
	u.balance, u.set[fieldBalance] = out, true
	return v.merge(u), nil
}

func (v *View) merge(u update) Facts {
	v.mu.Lock()
	defer v.mu.Unlock()

	next := v.Snapshot()
	for f := 0; f < numFields; f++ {
		if !u.set[f] {
			continue
		}
		if u.ticket <= v.applied[f] {
			v.log.Info("dropping stale token read", "field", f, "ticket", u.ticket, "applied", v.applied[f])
			continue
		}
		v.applied[f] = u.ticket
		switch f {
		case fieldName:
			next.Name = u.name
		case fieldDecimals:
			next.Decimals = u.dec
		case fieldSupply:
			next.TotalSupply = u.supply
		case fieldBalance:
			next.Balance = u.balance
			next.Account = u.account
		}
	}
	v.facts.Store(&next)
	return next
}

func readOne(ctx context.Context, r Reader, method string, args ...string) (string, error) {
	out, err := r.Call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("%s returned no value", method)
	}
	return out[0], nil
}

// ReadMethods are the contract functions Refresh calls.
func ReadMethods() []string {
	return []string{"name", "decimals", "totalSupply", "balanceOf"}
}
