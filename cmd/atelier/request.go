package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var modeFlags = []string{"closeup", "shadow", "glow", "bn", "uv", "blackout", "banana"}

// addRequestFlags registers the flags every token-addressed command shares.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("request", "r", "", "Render request file (.json or .yaml) instead of a token id")
	for _, name := range modeFlags {
		cmd.Flags().Bool(name, false, "Enable the "+name+" mode")
	}
	cmd.Flags().String("messages", "", "Message overlay text")
}

func modesFrom(cmd *cobra.Command) domain.Modes {
	get := func(name string) bool {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return domain.Modes{
		Closeup:  get("closeup"),
		Shadow:   get("shadow"),
		Glow:     get("glow"),
		BN:       get("bn"),
		UV:       get("uv"),
		Blackout: get("blackout"),
		Banana:   get("banana"),
	}
}

// resolveRequest reads the request file given with --request, or builds
// the request of the token id in args from the trait source.
func resolveRequest(ctx context.Context, cmd *cobra.Command, engine *atelier.Engine, args []string) (domain.RenderRequest, error) {
	if path := stringFlag(cmd, "request"); path != "" {
		return readRequest(path)
	}
	if len(args) != 1 {
		return domain.RenderRequest{}, fmt.Errorf("expected a token id or --request")
	}
	tokenID, err := strconv.Atoi(args[0])
	if err != nil {
		return domain.RenderRequest{}, fmt.Errorf("%w: %q", domain.ErrInvalidToken, args[0])
	}
	req, err := engine.RequestFor(ctx, tokenID, modesFrom(cmd))
	if err != nil {
		return domain.RenderRequest{}, err
	}
	if cmd.Flags().Changed("messages") {
		req.Messages = stringFlag(cmd, "messages")
	}
	return req, nil
}

func readRequest(path string) (domain.RenderRequest, error) {
	var req domain.RenderRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read request: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return req, fmt.Errorf("failed to parse request %s: %w", filepath.Base(path), err)
	}
	return req, nil
}
