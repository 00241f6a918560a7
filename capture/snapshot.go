// CLAUDE:SUMMARY Page acquisition: plain HTTP GET with an SPA-shell heuristic, rod+stealth headless rendering, auto escalation, optional sanitising.
// Package capture acquires the HTML of a page, either with a plain HTTP GET
// or by rendering it in headless Chrome, and hands it over as a Snapshot.
package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hazyhaar/domcore/idgen"
)

// Method records how a snapshot was acquired.
type Method string

const (
	MethodHTTP    Method = "http"
	MethodBrowser Method = "browser"
	MethodInline  Method = "inline"
)

// Snapshot is one acquired copy of a page.
type Snapshot struct {
	ID        string `json:"id"`
	URL       string `json:"url,omitempty"`
	HTML      []byte `json:"-"`
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"` // unix millis
	Method    Method `json:"method"`
}

// NewSnapshot wraps html acquired by method.
func NewSnapshot(pageURL string, html []byte, method Method) *Snapshot {
	return &Snapshot{
		ID:        idgen.Snapshot(),
		URL:       pageURL,
		HTML:      html,
		Hash:      HashHTML(html),
		Timestamp: time.Now().UnixMilli(),
		Method:    method,
	}
}

// HashHTML returns the hex SHA-256 of html.
func HashHTML(html []byte) string {
	sum := sha256.Sum256(html)
	return hex.EncodeToString(sum[:])
}
