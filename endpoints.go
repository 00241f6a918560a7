package domcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/domcore/idgen"
	"github.com/hazyhaar/domcore/internal/store"
	"github.com/hazyhaar/domcore/kit"
)

// ErrBadRequest marks malformed endpoint input.
var ErrBadRequest = errors.New("domcore: bad request")

// AnalyzeHTMLRequest analyses inline markup.
type AnalyzeHTMLRequest struct {
	HTML string `json:"html"`
	URL  string `json:"url,omitempty"`
	DOT  bool   `json:"dot,omitempty"`
}

// AnalyzeURLRequest captures and analyses a page.
type AnalyzeURLRequest struct {
	URL string `json:"url"`
	DOT bool   `json:"dot,omitempty"`
}

// ListRunsRequest pages the run history.
type ListRunsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// RunRequest names a stored run.
type RunRequest struct {
	ID string `json:"id"`
}

// RunList is the response of the list endpoint.
type RunList struct {
	Runs []*store.Run `json:"runs"`
}

type endpointSet struct {
	analyzeHTML kit.Endpoint
	analyzeURL  kit.Endpoint
	listRuns    kit.Endpoint
	getRun      kit.Endpoint
	deleteRun   kit.Endpoint
}

func (a *Analyzer) endpoints() endpointSet {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.WithRequestIDs(idgen.Default), kit.Logging(a.logger, name))(ep)
	}
	return endpointSet{
		analyzeHTML: wrap("analyze_html", a.analyzeHTMLEndpoint),
		analyzeURL:  wrap("analyze_url", a.analyzeURLEndpoint),
		listRuns:    wrap("list_runs", a.listRunsEndpoint),
		getRun:      wrap("get_run", a.getRunEndpoint),
		deleteRun:   wrap("delete_run", a.deleteRunEndpoint),
	}
}

func (a *Analyzer) withDOT(res *Result, want bool) (*Result, error) {
	if !want {
		return res, nil
	}
	var b strings.Builder
	if _, err := res.WriteDOT(&b); err != nil {
		return nil, err
	}
	res.DOT = b.String()
	return res, nil
}

func (a *Analyzer) analyzeHTMLEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(AnalyzeHTMLRequest)
	if strings.TrimSpace(r.HTML) == "" {
		return nil, fmt.Errorf("%w: html is required", ErrBadRequest)
	}
	res, err := a.AnalyzeHTML(ctx, []byte(r.HTML), r.URL)
	if err != nil {
		return nil, err
	}
	return a.withDOT(res, r.DOT)
}

func (a *Analyzer) analyzeURLEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(AnalyzeURLRequest)
	if r.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrBadRequest)
	}
	res, err := a.AnalyzeURL(ctx, r.URL)
	if err != nil {
		return nil, err
	}
	return a.withDOT(res, r.DOT)
}

func (a *Analyzer) listRunsEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(ListRunsRequest)
	runs, err := a.ListRuns(ctx, r.Limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	return RunList{Runs: runs}, nil
}

func (a *Analyzer) getRunEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(RunRequest)
	if r.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrBadRequest)
	}
	return a.GetRun(ctx, r.ID)
}

func (a *Analyzer) deleteRunEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(RunRequest)
	if r.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrBadRequest)
	}
	if err := a.DeleteRun(ctx, r.ID); err != nil {
		return nil, err
	}
	return map[string]string{"deleted": r.ID}, nil
}
