// Package chatcmder provides the interactive chat command.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/cmd/wikiart/stack"
	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/cliui"
	"github.com/papercomputeco/wikiart/pkg/config"
)

const chatLongDesc string = `Start an interactive conversation about the artworks in your catalog.

Each question retrieves the most similar artworks from the index and asks
the configured language model to answer from them. Earlier turns of the
conversation are kept as context up to --max-history turns.

Type "clear" to start a new conversation, or "quit" / "exit" to leave.

Examples:
  wikiart chat
  wikiart chat --model llama3.2:latest --top-k 5
  wikiart chat --catalog ./data/wikiart.csv`

const chatShortDesc string = "Chat about artworks in the catalog"

var chatFlags = []string{
	config.FlagCatalog,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagGenerationTgt,
	config.FlagGenerationModel,
	config.FlagTimeout,
	config.FlagRetries,
	config.FlagTopK,
	config.FlagMaxHistory,
}

type chatCommander struct {
	catalog           string
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	generationTarget  string
	model             string
	timeout           string
	retries           uint
	topK              uint
	maxHistory        uint
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx, cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagCatalog, &cmder.catalog)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenerationTgt, &cmder.generationTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenerationModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddUintFlag(cmd, config.Flags, config.FlagRetries, &cmder.retries)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxHistory, &cmder.maxHistory)

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	settings, err := stack.LoadSettings(cmd, chatFlags)
	if err != nil {
		return err
	}

	log, err := stack.NewLogger(cmd)
	if err != nil {
		return err
	}
	st, err := stack.New(settings, log)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	interactive := cliui.IsInteractive()

	fmt.Fprintln(out)
	err = step(out, interactive, "Loading artwork index", func() error {
		_, err := st.Ensure(ctx)
		return err
	})
	if err != nil {
		return err
	}

	gen, err := st.NewGenerator()
	if err != nil {
		return err
	}
	orch, err := st.NewOrchestrator(gen)
	if err != nil {
		return err
	}

	if err := gen.Health(ctx); err != nil {
		log.Warn("generation service is not ready", "provider", gen.Name(), "error", err)
	}

	fmt.Fprintf(out, "\n  %s %s\n  %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		settings.GenerationModel,
		cliui.DimStyle.Render(`Ask about an artwork. Type "quit" to exit.`),
	)

	return converse(ctx, cmd.InOrStdin(), out, interactive, orch, settings.MaxHistory)
}

// converse runs the read-answer loop until EOF, quit or cancellation.
// Failed turns are reported and the conversation continues.
func converse(ctx context.Context, in io.Reader, out io.Writer, interactive bool, orch *chat.Orchestrator, maxHistory int) error {
	session := chat.NewSession(maxHistory)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, cliui.PromptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "clear":
			session = chat.NewSession(maxHistory)
			fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Started a new conversation."))
			continue
		}

		var reply string
		err := step(out, interactive, "Thinking", func() error {
			var err error
			reply, err = orch.Respond(ctx, session, line)
			return err
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "  %s %s\n\n", cliui.FailMark, err)
			continue
		}

		rendered := reply + "\n"
		if interactive {
			if md, err := cliui.RenderMarkdown(reply); err == nil {
				rendered = md
			}
		}
		fmt.Fprintf(out, "\n%s\n", rendered)
	}
}

func step(w io.Writer, interactive bool, msg string, fn func() error) error {
	if interactive {
		return cliui.Step(w, msg, fn)
	}
	return fn()
}
