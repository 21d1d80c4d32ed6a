package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect or declare tags",
	}
	cmd.AddCommand(newTagsListCmd())
	cmd.AddCommand(newTagsDescribeCmd())
	cmd.AddCommand(newTagsWizardCmd())
	return cmd
}

func newTagsListCmd() *cobra.Command {
	var httpAddress string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List current tag values from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := fetchTagMap(httpAddress, "value")
			if err != nil {
				return err
			}
			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%-24s %v\n", name, values[name])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&httpAddress, "http-address", "http://127.0.0.1:8787", "Control-plane HTTP base URL")
	return cmd
}

func newTagsDescribeCmd() *cobra.Command {
	var httpAddress string
	cmd := &cobra.Command{
		Use:   "describe <name>",
		Short: "Show a tag's value, error code, and recent access events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			value, err := fetchTagMap(httpAddress, "value")
			if err != nil {
				return err
			}
			errs, err := fetchTagMap(httpAddress, "error")
			if err != nil {
				return err
			}
			events, err := fetchTagMap(httpAddress, "events")
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", name)
			fmt.Printf("  value:  %v\n", value[name])
			fmt.Printf("  error:  %v\n", errs[name])
			fmt.Printf("  events: %v\n", events[name])
			return nil
		},
	}
	cmd.Flags().StringVar(&httpAddress, "http-address", "http://127.0.0.1:8787", "Control-plane HTTP base URL")
	return cmd
}

func fetchTagMap(baseURL, command string) (map[string]any, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/tags/*/" + command
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env struct {
		Data    map[string]any `json:"data"`
		Command struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"command"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Command.Success {
		return nil, fmt.Errorf("%s", env.Command.Message)
	}
	return env.Data, nil
}

// newTagsWizardCmd interactively builds a NAME=TYPE[SIZE] tag declaration:
// ask, validate, echo a ready-to-use flag.
func newTagsWizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Interactively build a --tag declaration",
		RunE: func(cmd *cobra.Command, args []string) error {
			var name, dtype, sizeStr string
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Tag name").
						Value(&name).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("name is required")
							}
							return nil
						}),
					huh.NewSelect[string]().
						Title("Data type").
						Options(
							huh.NewOption("SINT (1 byte)", "SINT"),
							huh.NewOption("INT (2 bytes)", "INT"),
							huh.NewOption("DINT (4 bytes)", "DINT"),
						).
						Value(&dtype),
					huh.NewInput().
						Title("Array size").
						Placeholder("1").
						Value(&sizeStr).
						Validate(func(s string) error {
							if s == "" {
								return nil
							}
							n, err := strconv.Atoi(s)
							if err != nil || n < 1 {
								return fmt.Errorf("size must be a positive integer")
							}
							return nil
						}),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			size := sizeStr
			if size == "" {
				size = "1"
			}
			fmt.Printf("--tag %s=%s[%s]\n", name, dtype, size)
			return nil
		},
	}
}
