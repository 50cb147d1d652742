package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/config"
	"github.com/matzehuels/chainflow/pkg/feed"
	"github.com/matzehuels/chainflow/pkg/scene"
)

const (
	// watchRefresh is how often the monitor polls feed and scene state.
	watchRefresh = 500 * time.Millisecond
	// watchHistory is the number of layout passes listed.
	watchHistory = 8
)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	scene sceneFlags
	feed  feedFlags
}

func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor a live feed and its layout passes in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.scene.apply(cmd.Flags(), cfg)
			opts.feed.apply(cmd.Flags(), cfg)
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), cfg)
		},
	}
	opts.scene.register(cmd.Flags())
	opts.feed.register(cmd.Flags())
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, cfg *config.Config) error {
	// Log lines would tear the terminal UI.
	logger := newLogger(io.Discard, LogInfo)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var prog *tea.Program
	e, err := newEngine(cfg, logger, func(p scene.Pass) {
		if prog != nil {
			prog.Send(passMsg(p))
		}
	})
	if err != nil {
		return err
	}

	m, err := newWatchModel(e)
	if err != nil {
		return err
	}
	prog = tea.NewProgram(m, tea.WithContext(ctx))

	engineErr := make(chan error, 1)
	go func() {
		err := e.run(ctx)
		prog.Send(doneMsg{err: err})
		engineErr <- err
	}()

	_, runErr := prog.Run()
	cancel()
	err = <-engineErr
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return err
}

// =============================================================================
// Model
// =============================================================================

type (
	passMsg  scene.Pass
	doneMsg  struct{ err error }
	statsMsg struct {
		feed      feed.Status
		instances int
		edges     int
		offset    float64
		counts    map[chain.Type]int
	}
	refreshMsg time.Time
)

// watchModel is the bubbletea model of the monitor.
type watchModel struct {
	engine  *engine
	session string
	source  string

	stats  statsMsg
	passes *queue.CircularBuffer // of scene.Pass, oldest first
	total  int
	err    error
	done   bool
}

func newWatchModel(e *engine) (watchModel, error) {
	passes, err := queue.NewCircularBuffer(watchHistory)
	if err != nil {
		return watchModel{}, err
	}
	return watchModel{
		engine:  e,
		session: e.scene.Session(),
		source:  e.source.Name(),
		passes:  passes,
	}, nil
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.poll(), refresh())
}

func refresh() tea.Cmd {
	return tea.Tick(watchRefresh, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// poll reads scene counters on the loop goroutine.
func (m watchModel) poll() tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		msg := statsMsg{feed: e.feed.Status()}
		ctx, cancel := context.WithTimeout(context.Background(), watchRefresh)
		defer cancel()
		_ = e.loop.Do(ctx, func(sc *scene.Scene) {
			msg.instances = sc.Instances()
			msg.edges = sc.Edges()
			msg.offset = sc.Offset()
			msg.counts = sc.Counts()
		})
		return msg
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			e := m.engine
			return m, func() tea.Msg {
				_ = e.loop.Do(context.Background(), func(sc *scene.Scene) { sc.Recenter() })
				return nil
			}
		}
	case passMsg:
		m.passes.Add(scene.Pass(msg))
		m.total++
	case statsMsg:
		m.stats = msg
	case refreshMsg:
		if m.done {
			return m, nil
		}
		return m, tea.Batch(m.poll(), refresh())
	case doneMsg:
		m.done, m.err = true, msg.err
	}
	return m, nil
}

var (
	watchHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	watchOnStyle     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	watchOffStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

func (m watchModel) View() string {
	var b strings.Builder
	st := m.stats

	b.WriteString(StyleTitle.Render("chainflow watch"))
	b.WriteString(StyleDim.Render("  session " + m.session))
	b.WriteString("\n\n")

	conn := watchOffStyle.Render("disconnected")
	if st.feed.Connected {
		conn = watchOnStyle.Render("connected")
	}
	fmt.Fprintf(&b, "%s %s  %s\n", styleKey.Render("source"), StyleValue.Render(m.source), conn)
	fmt.Fprintf(&b, "%s %d retained · %d total · %d dropped · %d duplicates · %d reconnects\n",
		styleKey.Render("feed"), st.feed.Items, st.feed.Total, st.feed.Dropped, st.feed.Duplicates, st.feed.Reconnects)
	if st.feed.LastError != "" {
		fmt.Fprintf(&b, "%s %s\n", styleKey.Render("last error"), StyleWarning.Render(st.feed.LastError))
	}
	fmt.Fprintf(&b, "%s %d instances · %d edges · offset %.1f\n\n",
		styleKey.Render("scene"), st.instances, st.edges, st.offset)

	rows := make([][]string, 0, len(chain.Types))
	for _, t := range chain.Types {
		rows = append(rows, []string{string(t), fmt.Sprint(st.counts[t])})
	}
	b.WriteString(table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Type", "Instances").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return watchHeaderStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s\n", watchHeaderStyle.Render(fmt.Sprintf("Layout passes (%d)", m.total)))
	for _, v := range m.passes.List() {
		p := v.(scene.Pass)
		line := fmt.Sprintf("  %4d items  +%d placed  %d edges  %s",
			p.Items, p.Placed, p.Edges, p.Duration.Round(time.Microsecond))
		if p.Rebuilt {
			line += StyleWarning.Render(fmt.Sprintf("  rebuilt (-%d)", p.Dropped))
		}
		if p.Refused > 0 {
			line += StyleWarning.Render(fmt.Sprintf("  %d refused", p.Refused))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(StyleError.Render("stopped: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString(StyleDim.Render("stopped") + "\n")
	}
	b.WriteString(StyleDim.Render("r recenter  q quit"))
	return b.String()
}
