package mcp

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/edata"
	"github.com/dmc31a42/WargameModInstaller/internal/ingest"
	"github.com/dmc31a42/WargameModInstaller/internal/plan"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
	"github.com/dmc31a42/WargameModInstaller/internal/texture"
	"github.com/dmc31a42/WargameModInstaller/internal/validate"
)

var errNoJournal = errors.New("install journal is not configured")

type PlanInstallInput struct {
	Document   string   `json:"document" jsonschema:"path to the install document"`
	Profile    string   `json:"profile,omitempty" jsonschema:"component profile from the settings file"`
	Components []string `json:"components,omitempty" jsonschema:"components to install"`
}

type ValidateInstallInput struct {
	Document   string   `json:"document" jsonschema:"path to the install document"`
	Profile    string   `json:"profile,omitempty" jsonschema:"component profile from the settings file"`
	Components []string `json:"components,omitempty" jsonschema:"components to check"`
}

type InspectArchiveInput struct {
	Path string `json:"path" jsonschema:"archive path, relative to the game directory"`
}

type InspectTextureInput struct {
	Path string `json:"path" jsonschema:"DDS file path, relative to the mod directory"`
}

type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs"`
}

type GetRunInput struct {
	ID int64 `json:"id" jsonschema:"run id"`
}

type SearchOutcomesInput struct {
	Query string `json:"query" jsonschema:"search terms over targets and messages"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

type CommandOutput struct {
	ID       int    `json:"id"`
	Kind     string `json:"kind"`
	Priority int    `json:"priority"`
	Critical bool   `json:"critical"`
	Source   string `json:"source,omitempty"`
	Target   string `json:"target,omitempty"`
	Content  string `json:"content,omitempty"`
}

type GroupOutput struct {
	Kind      string          `json:"kind"`
	Priority  int             `json:"priority"`
	Target    string          `json:"target,omitempty"`
	Container string          `json:"container,omitempty"`
	Commands  []CommandOutput `json:"commands"`
}

type PlanInstallOutput struct {
	Components []string      `json:"components"`
	Groups     []GroupOutput `json:"groups"`
	Summary    plan.Summary  `json:"summary"`
}

type IssueOutput struct {
	Severity  string `json:"severity"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	CommandID int    `json:"command_id"`
	Kind      string `json:"kind"`
	Path      string `json:"path,omitempty"`
}

type ValidateInstallOutput struct {
	Errors int           `json:"errors"`
	Issues []IssueOutput `json:"issues"`
}

type RegionOutput struct {
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
}

type ArchiveOutput struct {
	Path       string       `json:"path"`
	Size       int64        `json:"size"`
	Version    uint32       `json:"version"`
	ChecksumV1 string       `json:"checksum_v1"`
	ChecksumV2 string       `json:"checksum_v2"`
	Dictionary RegionOutput `json:"dictionary"`
	Files      RegionOutput `json:"files"`
	Padding    uint32       `json:"padding"`
	Valid      bool         `json:"valid"`
	Problem    string       `json:"problem,omitempty"`

	// DictionaryHead is the hex of the dictionary's first bytes.
	DictionaryHead string `json:"dictionary_head,omitempty"`
}

type TextureOutput struct {
	Path           string `json:"path"`
	Width          uint32 `json:"width"`
	Height         uint32 `json:"height"`
	Format         string `json:"format"`
	MipCount       uint32 `json:"mip_count"`
	MipSizes       []int  `json:"mip_sizes"`
	FloorAmbiguous bool   `json:"floor_ambiguous,omitempty"`
}

type RunOutput struct {
	ID         int64    `json:"id"`
	Document   string   `json:"document"`
	GameDir    string   `json:"game_dir"`
	ModDir     string   `json:"mod_dir"`
	Components []string `json:"components"`
	Commands   int      `json:"commands"`
	Groups     int      `json:"groups"`
	Status     string   `json:"status"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at,omitempty"`
}

type OutcomeOutput struct {
	CommandID int    `json:"command_id"`
	Kind      string `json:"kind"`
	Group     int    `json:"group"`
	Critical  bool   `json:"critical"`
	Status    string `json:"status"`
	Target    string `json:"target,omitempty"`
	Backup    string `json:"backup,omitempty"`
	Message   string `json:"message,omitempty"`
}

type ListRunsOutput struct {
	Runs []RunOutput `json:"runs"`
}

type GetRunOutput struct {
	Run      RunOutput       `json:"run"`
	Outcomes []OutcomeOutput `json:"outcomes"`
}

type SearchResultOutput struct {
	RunID     int64   `json:"run_id"`
	CommandID int     `json:"command_id"`
	Kind      string  `json:"kind"`
	Status    string  `json:"status"`
	Target    string  `json:"target"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}

type SearchOutcomesOutput struct {
	Results []SearchResultOutput `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "plan_install",
		Description: "Read an install document and return its commands grouped in execution order",
	}, s.handlePlanInstall)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_install",
		Description: "Check an install document's commands for problems before installing",
	}, s.handleValidateInstall)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "inspect_archive",
		Description: "Decode the header of a packed game archive",
	}, s.handleInspectArchive)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "inspect_texture",
		Description: "Decode a DDS texture and list its mip levels",
	}, s.handleInspectTexture)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_runs",
		Description: "List recent install runs, newest first",
	}, s.handleListRuns)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_run",
		Description: "Retrieve an install run and the outcome of each command",
	}, s.handleGetRun)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_outcomes",
		Description: "Search recorded command outcomes by target and message",
	}, s.handleSearchOutcomes)
}

func (s *Server) readCommands(document, profile string, explicit []string) ([]command.Command, []string, error) {
	if document == "" {
		return nil, nil, fmt.Errorf("document is required")
	}
	components, err := s.settings.Components(profile, explicit)
	if err != nil {
		return nil, nil, err
	}
	reader := ingest.NewReader(ingest.Options{
		DefaultCritical: s.settings.CriticalCommands,
		Components:      components,
	})
	cmds, err := reader.ReadFile(document)
	if err != nil {
		return nil, nil, err
	}
	return cmds, components, nil
}

func (s *Server) handlePlanInstall(ctx context.Context, req *sdk.CallToolRequest, input PlanInstallInput) (*sdk.CallToolResult, PlanInstallOutput, error) {
	cmds, components, err := s.readCommands(input.Document, input.Profile, input.Components)
	if err != nil {
		return nil, PlanInstallOutput{}, err
	}

	groups := plan.Build(cmds)
	output := PlanInstallOutput{
		Components: components,
		Groups:     make([]GroupOutput, 0, len(groups)),
		Summary:    plan.Summarize(groups),
	}
	for _, group := range groups {
		output.Groups = append(output.Groups, groupOutput(group))
	}
	return nil, output, nil
}

func (s *Server) handleValidateInstall(ctx context.Context, req *sdk.CallToolRequest, input ValidateInstallInput) (*sdk.CallToolResult, ValidateInstallOutput, error) {
	cmds, _, err := s.readCommands(input.Document, input.Profile, input.Components)
	if err != nil {
		return nil, ValidateInstallOutput{}, err
	}

	report := validate.Run(cmds, validate.Options{ModDir: s.settings.ModDir, GameDir: s.settings.GameDir})
	output := ValidateInstallOutput{
		Errors: report.Errors(),
		Issues: make([]IssueOutput, 0, len(report.Issues)),
	}
	for _, issue := range report.Issues {
		output.Issues = append(output.Issues, IssueOutput{
			Severity:  string(issue.Severity),
			Code:      issue.Code,
			Message:   issue.Message,
			CommandID: issue.CommandID,
			Kind:      issue.Kind.String(),
			Path:      issue.Path,
		})
	}
	return nil, output, nil
}

func (s *Server) handleInspectArchive(ctx context.Context, req *sdk.CallToolRequest, input InspectArchiveInput) (*sdk.CallToolResult, ArchiveOutput, error) {
	if input.Path == "" {
		return nil, ArchiveOutput{}, fmt.Errorf("path is required")
	}
	path := resolvePath(s.settings.GameDir, input.Path)

	f, err := os.Open(path)
	if err != nil {
		return nil, ArchiveOutput{}, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ArchiveOutput{}, fmt.Errorf("opening archive: %w", err)
	}
	header, err := edata.ReadHeader(f)
	if err != nil {
		return nil, ArchiveOutput{}, err
	}

	output := archiveOutput(header)
	output.Path = path
	output.Size = info.Size()
	output.Valid = true
	if err := header.Validate(info.Size()); err != nil {
		output.Valid = false
		output.Problem = err.Error()
		return nil, output, nil
	}

	head := make([]byte, min(header.DictionaryRegion().Length, dictionaryHeadSize))
	if _, err := io.ReadFull(header.DictionaryRegion().Section(f), head); err != nil {
		return nil, ArchiveOutput{}, fmt.Errorf("reading dictionary: %w", err)
	}
	output.DictionaryHead = hex.EncodeToString(head)
	return nil, output, nil
}

const dictionaryHeadSize = 16

func (s *Server) handleInspectTexture(ctx context.Context, req *sdk.CallToolRequest, input InspectTextureInput) (*sdk.CallToolResult, TextureOutput, error) {
	if input.Path == "" {
		return nil, TextureOutput{}, fmt.Errorf("path is required")
	}
	path := resolvePath(s.settings.ModDir, input.Path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, TextureOutput{}, fmt.Errorf("reading texture: %w", err)
	}
	img, err := texture.DecodeDDS(data)
	if err != nil {
		return nil, TextureOutput{}, err
	}

	output := TextureOutput{
		Path:           path,
		Width:          img.Width,
		Height:         img.Height,
		Format:         img.Format.String(),
		MipCount:       img.MipCount,
		MipSizes:       make([]int, 0, len(img.MipLevels)),
		FloorAmbiguous: img.FloorAmbiguous,
	}
	for _, level := range img.MipLevels {
		output.MipSizes = append(output.MipSizes, len(level))
	}
	return nil, output, nil
}

func (s *Server) handleListRuns(ctx context.Context, req *sdk.CallToolRequest, input ListRunsInput) (*sdk.CallToolResult, ListRunsOutput, error) {
	if s.history == nil {
		return nil, ListRunsOutput{}, errNoJournal
	}
	runs, err := s.history.ListRuns(ctx, input.Limit)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}

	output := make([]RunOutput, 0, len(runs))
	for _, run := range runs {
		output = append(output, runOutput(run))
	}
	return nil, ListRunsOutput{Runs: output}, nil
}

func (s *Server) handleGetRun(ctx context.Context, req *sdk.CallToolRequest, input GetRunInput) (*sdk.CallToolResult, GetRunOutput, error) {
	if s.history == nil {
		return nil, GetRunOutput{}, errNoJournal
	}
	if input.ID <= 0 {
		return nil, GetRunOutput{}, fmt.Errorf("id is required")
	}
	run, err := s.history.GetRun(ctx, input.ID)
	if err != nil {
		return nil, GetRunOutput{}, err
	}
	outcomes, err := s.history.GetOutcomes(ctx, input.ID)
	if err != nil {
		return nil, GetRunOutput{}, err
	}

	output := GetRunOutput{Run: runOutput(*run), Outcomes: make([]OutcomeOutput, 0, len(outcomes))}
	for _, outcome := range outcomes {
		output.Outcomes = append(output.Outcomes, OutcomeOutput{
			CommandID: outcome.CommandID,
			Kind:      outcome.Kind,
			Group:     outcome.Group,
			Critical:  outcome.Critical,
			Status:    string(outcome.Status),
			Target:    outcome.Target,
			Backup:    outcome.Backup,
			Message:   outcome.Message,
		})
	}
	return nil, output, nil
}

func (s *Server) handleSearchOutcomes(ctx context.Context, req *sdk.CallToolRequest, input SearchOutcomesInput) (*sdk.CallToolResult, SearchOutcomesOutput, error) {
	if s.history == nil {
		return nil, SearchOutcomesOutput{}, errNoJournal
	}
	if input.Query == "" {
		return nil, SearchOutcomesOutput{}, fmt.Errorf("query is required")
	}
	results, err := s.history.SearchOutcomes(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutcomesOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, result := range results {
		output = append(output, SearchResultOutput{
			RunID:     result.RunID,
			CommandID: result.CommandID,
			Kind:      result.Kind,
			Status:    string(result.Status),
			Target:    result.Target,
			Snippet:   result.Snippet,
			Score:     result.Score,
		})
	}
	return nil, SearchOutcomesOutput{Results: output}, nil
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

func groupOutput(group plan.Group) GroupOutput {
	out := GroupOutput{
		Kind:     group.Kind().String(),
		Priority: group.Priority(),
	}
	if targeted, ok := group.(plan.ArchiveTargeted); ok {
		out.Target = targeted.Target().String()
	}
	if nested, ok := group.(*plan.NestedArchiveGroup); ok {
		out.Container = nested.Container().String()
	}

	cmds := group.Commands()
	out.Commands = make([]CommandOutput, 0, len(cmds))
	for _, cmd := range cmds {
		out.Commands = append(out.Commands, commandOutput(cmd))
	}
	return out
}

func commandOutput(cmd command.Command) CommandOutput {
	out := CommandOutput{
		ID:       cmd.ID(),
		Kind:     cmd.Kind().String(),
		Priority: cmd.Priority(),
		Critical: cmd.IsCritical(),
	}
	if sourced, ok := cmd.(command.Sourced); ok {
		out.Source = sourced.Source().String()
	}
	if targeted, ok := cmd.(command.Targeted); ok {
		out.Target = targeted.Target().String()
	}
	if content, ok := cmd.(command.ContentTargeted); ok {
		out.Content = content.TargetContent().String()
	}
	return out
}

func archiveOutput(header *edata.Header) ArchiveOutput {
	dictionary := header.DictionaryRegion()
	files := header.FileRegion()
	return ArchiveOutput{
		Version:    header.Version,
		ChecksumV1: hex.EncodeToString(header.ChecksumV1[:]),
		ChecksumV2: hex.EncodeToString(header.ChecksumV2[:]),
		Dictionary: RegionOutput{Offset: dictionary.Offset, Length: dictionary.Length},
		Files:      RegionOutput{Offset: files.Offset, Length: files.Length},
		Padding:    header.Padding,
	}
}

func runOutput(run store.Run) RunOutput {
	out := RunOutput{
		ID:         run.ID,
		Document:   run.Document,
		GameDir:    run.GameDir,
		ModDir:     run.ModDir,
		Components: append([]string{}, run.Components...),
		Commands:   run.Commands,
		Groups:     run.Groups,
		Status:     string(run.Status),
		StartedAt:  run.StartedAt.Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		out.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return out
}
