package usage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/termfx/apigraph/internal/apierr"
	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/diag"
)

// HelperEvent is one NDJSON line emitted by the external Mode B helper
// (§6 "Usage-helper protocol"): either a covered-operation record or an
// error record.
type HelperEvent struct {
	Type       string `json:"type"`
	ClientType string `json:"clientType,omitempty"`
	Operation  string `json:"operation,omitempty"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	Signature  string `json:"signature,omitempty"`
	Message    string `json:"message,omitempty"`
}

// HelperOptions configures one Mode B invocation.
type HelperOptions struct {
	// HelperPath is the interpreter-or-artifact path to spawn.
	HelperPath string
	// SamplesPath is passed as the helper's second CLI argument.
	SamplesPath string
	// Timeout bounds the child process's total runtime; on expiry the
	// child is killed and a partial (possibly empty) index is returned
	// (§5 "Cancellation... For external helpers, cancellation kills the
	// child process").
	Timeout time.Duration
	Sink    *diag.Sink
}

// RunHelper spawns the external usage-analysis helper per §6's protocol:
// invoked as `helperPath --usage - samplesPath`, fed index as JSON on
// stdin, and read back as newline-delimited JSON events on stdout.
//
// Only "covered" and "error" events are acted on: each covered event
// becomes a CoveredOperation (the event's Signature is not carried over,
// CoveredOperation having no signature field), and the returned
// UncoveredOperations is always empty, since nothing here compares the
// covered set against the client types' declared methods.
func RunHelper(ctx context.Context, index *core.ApiIndex, opts HelperOptions) (core.UsageIndex, error) {
	sink := opts.Sink
	if sink == nil {
		sink = diag.Default
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	payload, err := json.Marshal(index)
	if err != nil {
		return core.UsageIndex{}, fmt.Errorf("marshaling api index for helper: %w", err)
	}

	cmd := exec.CommandContext(runCtx, opts.HelperPath, "--usage", "-", opts.SamplesPath)
	cmd.Stdin = bytes.NewReader(payload)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return core.UsageIndex{}, fmt.Errorf("attaching helper stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		sink.Warn(string(apierr.CodeHelperUnavailable), "starting usage helper "+opts.HelperPath, err)
		return core.UsageIndex{}, err
	}

	var covered []core.CoveredOperation
	var uncovered []core.UncoveredOperation
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var ev HelperEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			sink.Warn(string(apierr.CodeHelperProtocolError), "malformed helper event", err)
			continue
		}
		switch ev.Type {
		case "covered":
			covered = append(covered, core.CoveredOperation{
				ClientType: ev.ClientType,
				Operation:  ev.Operation,
				File:       ev.File,
				Line:       ev.Line,
			})
		case "error":
			sink.Warn(string(apierr.CodeHelperProtocolError), ev.Message, nil)
		}
	}

	waitErr := cmd.Wait()
	if runCtx.Err() == context.DeadlineExceeded {
		sink.Warn(string(apierr.CodeHelperProtocolError), "usage helper timed out, killed", runCtx.Err())
		return core.UsageIndex{CoveredOperations: covered, UncoveredOperations: uncovered}, nil
	}
	if waitErr != nil {
		sink.Warn(string(apierr.CodeHelperProtocolError), "usage helper exited non-zero", waitErr)
	}

	return core.UsageIndex{
		CoveredOperations:   covered,
		UncoveredOperations: uncovered,
	}, nil
}

// BackfillSignatures fills in an empty Signature on every uncovered
// operation by looking it up in clients, keyed by "ClientType.MethodName".
// Covered operations are returned unchanged.
func BackfillSignatures(index core.UsageIndex, clients []core.TypeInfo) core.UsageIndex {
	lookup := make(map[string]string)
	for _, c := range clients {
		for _, m := range c.Members {
			if m.Kind != core.MemberMethod {
				continue
			}
			lookup[c.Name+"."+m.Name] = m.Sig
		}
	}

	out := index
	out.UncoveredOperations = append([]core.UncoveredOperation(nil), index.UncoveredOperations...)
	for i, u := range out.UncoveredOperations {
		if u.Signature == "" {
			out.UncoveredOperations[i].Signature = lookup[u.ClientType+"."+u.Operation]
		}
	}
	return out
}
