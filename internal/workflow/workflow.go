// Package workflow holds the top-level flows the psiq binary can run.
// The caller picks one explicitly; nothing is inferred from the
// environment.
package workflow

import (
	"context"
	"fmt"
	"strings"
)

// Kind names a workflow.
type Kind int

const (
	KindCapture Kind = iota
	KindReview
	KindReportIngest
	KindAnalyse
)

var kindNames = map[Kind]string{
	KindCapture:      "capture",
	KindReview:       "review",
	KindReportIngest: "ingest",
	KindAnalyse:      "analyse",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a command name to its Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	if s == "analyze" {
		return KindAnalyse, nil
	}
	return 0, fmt.Errorf("unknown workflow %q", s)
}

// Workflow is one runnable flow.
type Workflow interface {
	Kind() Kind
	Run(ctx context.Context) error
}
