package replay

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/mark3labs/routemock/internal/stub"
	"github.com/mark3labs/routemock/internal/validate"
)

// Outcome is the result of replaying one request.
type Outcome struct {
	Request   Request
	Namespace string
	Method    string
	// Matched is false when no method fits the request; such requests are skipped.
	Matched bool
	Report  validate.Report
	Err     error
}

// Failed reports whether the request matched but could not be rebuilt or
// failed validation.
func (o Outcome) Failed() bool {
	return o.Err != nil || !o.Report.Passed()
}

// Runner replays requests through a stub client.
type Runner struct {
	client  *stub.Client
	matcher *Matcher
	logger  *log.Logger
}

// NewRunner returns a runner invoking client for every request matcher
// recognizes. A nil logger discards output.
func NewRunner(client *stub.Client, matcher *Matcher, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{client: client, matcher: matcher, logger: logger}
}

// Run replays reqs in order. Every matched request invokes its stub once
// with the rebuilt arguments and is then checked with ArgumentsValid.
func (r *Runner) Run(reqs []Request) []Outcome {
	out := make([]Outcome, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, r.replay(req))
	}
	return out
}

func (r *Runner) replay(req Request) Outcome {
	o := Outcome{Request: req}
	ns, method, ok := r.matcher.Match(req)
	if !ok {
		r.logger.Debug("no method for request", "request", req.String())
		return o
	}
	o.Namespace, o.Method, o.Matched = ns, method, true

	s, err := r.client.Method(ns, method)
	if err != nil {
		o.Err = err
		return o
	}
	args, err := r.matcher.Params(req, ns, method)
	if err != nil {
		o.Err = err
		return o
	}
	s.Invoke(args)
	s.ArgumentsValid(o.Report.Assert)
	if !o.Report.Passed() {
		r.logger.Debug("request failed validation", "request", req.String(), "method", ns+"."+method, "failures", len(o.Report.Failures()))
	}
	return o
}

// Summary counts outcomes by result.
type Summary struct {
	Total, Matched, Skipped, Failed int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Total++
		if !o.Matched {
			s.Skipped++
			continue
		}
		s.Matched++
		if o.Failed() {
			s.Failed++
		}
	}
	return s
}
