package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spangrid/pkg/engine"
	"github.com/matzehuels/spangrid/pkg/grid"
	"github.com/matzehuels/spangrid/pkg/manifest"
	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/session"
)

// Terminal cells are mapped to engine pixels at a fixed ratio.
const (
	cellWidthPx  = 8
	cellHeightPx = 16
	chromeRows   = 2 // header and footer
)

var (
	browseFrameStyle  = lipgloss.NewStyle().Foreground(colorDim)
	browseHeaderStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// browseCommand creates the browse command, an interactive terminal view of
// the strip driven by the layout engine.
func (c *CLI) browseCommand() *cobra.Command {
	var strip stripFlags

	cmd := &cobra.Command{
		Use:   "browse [manifest]",
		Short: "Scroll a strip interactively in the terminal",
		Long: `Browse shows the realized window of a strip in the terminal. Only items
near the viewport exist at any time; scrolling recycles the rest.

Keys: j/k or arrows scroll a line, pgup/pgdn a page, g/G jump to the first or
last item, space toggles the top item between 1x1 and 2x2 (demo only), q quits.
The first visible item is saved on quit and restored on the next run.`,
		Example: `  spangrid browse --demo
  spangrid browse gallery.toml --lanes 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd, args, &strip)
		},
	}

	strip.register(cmd)
	return cmd
}

func (c *CLI) runBrowse(cmd *cobra.Command, args []string, strip *stripFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	m, err := loadManifest(args, strip.demo)
	if err != nil {
		return err
	}
	opts := c.options(cmd, strip, m)
	// Items are identified by their manifest index for the whole session.
	opts.StableOrder = true

	b, err := newBrowser(m, opts, strip.demo, 80, 24)
	if err != nil {
		return err
	}

	key := m.Hash()
	id := session.KeyID(key)
	store, err := c.openAnchors(ctx)
	if err != nil {
		logger.Warn("anchor store unavailable, position will not be kept", "err", err)
	} else {
		defer store.Close()
		if a, err := store.Get(ctx, id); err != nil {
			logger.Warn("could not read saved position", "err", err)
		} else if a != nil {
			b.eng.Restore(a.Saved())
			b.status = fmt.Sprintf("restored item %d", a.FirstVisibleIndex)
		}
	}
	if err := b.eng.Rebuild(); err != nil {
		return err
	}

	if _, err := tea.NewProgram(b, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return err
	}
	if b.err != nil {
		return b.err
	}

	saved, ok := b.eng.SaveAnchor()
	if !ok || store == nil {
		return nil
	}
	if err := store.Set(context.WithoutCancel(ctx), session.New(id, key, saved, c.settings().Anchors.TTL)); err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	printSuccess("Saved position at item %d", saved.FirstVisibleIndex)
	return nil
}

// =============================================================================
// browser - bubbletea model and engine.Renderer
// =============================================================================

// tile is the handle the browser hands out for a realized item.
type tile struct {
	index int
	frame grid.Frame // screen pixels
}

// browser is the bubbletea model for the browse command. It doubles as the
// engine's Renderer, so the tiles it draws are exactly the realized window.
type browser struct {
	eng   *engine.Engine
	items *manifest.Manifest
	demo  bool
	tiles map[*tile]struct{}

	cols, rows int
	status     string
	err        error
}

func newBrowser(m *manifest.Manifest, opts pipeline.Options, demo bool, cols, rows int) (*browser, error) {
	b := &browser{items: m, demo: demo, tiles: make(map[*tile]struct{})}
	b.cols, b.rows = cols, max(rows, chromeRows+1)
	opts.Width, opts.Height = b.viewportPx()
	if err := opts.Prepare(m); err != nil {
		return nil, err
	}
	eng, err := engine.New(opts.EngineConfig(), m, b)
	if err != nil {
		return nil, err
	}
	b.eng = eng
	return b, nil
}

func (b *browser) viewportPx() (width, height int) {
	return b.cols * cellWidthPx, (b.rows - chromeRows) * cellHeightPx
}

// Acquire implements engine.Renderer.
func (b *browser) Acquire(index int) engine.Handle {
	t := &tile{index: index}
	b.tiles[t] = struct{}{}
	return t
}

// Bind implements engine.Renderer.
func (b *browser) Bind(h engine.Handle, frame grid.Frame) {
	h.(*tile).frame = frame
}

// Release implements engine.Renderer.
func (b *browser) Release(h engine.Handle) {
	delete(b.tiles, h.(*tile))
}

func (b *browser) Init() tea.Cmd {
	return nil
}

func (b *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var err error
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return b, tea.Quit
		case "down", "j", "right", "l":
			err = b.scroll(b.lineStep())
		case "up", "k", "left", "h":
			err = b.scroll(-b.lineStep())
		case "pgdown", "f":
			err = b.scroll(b.pageStep())
		case "pgup", "b":
			err = b.scroll(-b.pageStep())
		case "g", "home":
			err = b.jump(0)
		case "G", "end":
			err = b.jump(b.items.Count() - 1)
		case " ", "space":
			if b.demo {
				err = b.toggle()
			}
		}
	case tea.WindowSizeMsg:
		err = b.resize(msg.Width, msg.Height)
	}
	if err != nil {
		b.err = err
		return b, tea.Quit
	}
	return b, nil
}

func (b *browser) lineStep() int {
	if b.eng.Orientation() == grid.Horizontal {
		return 2 * cellWidthPx
	}
	return cellHeightPx
}

func (b *browser) pageStep() int {
	w, h := b.viewportPx()
	if b.eng.Orientation() == grid.Horizontal {
		return w
	}
	return h
}

func (b *browser) scroll(delta int) error {
	_, err := b.eng.Scroll(delta)
	return err
}

func (b *browser) jump(index int) error {
	if index < 0 {
		return nil
	}
	b.eng.RequestScrollTo(index)
	return b.eng.Rebuild()
}

// toggle flips the first visible item between 1x1 and 2x2 and rebuilds with
// that item kept at the leading edge.
func (b *browser) toggle() error {
	index, ok := b.topItem()
	if !ok {
		return nil
	}
	span := b.items.Toggle(index)
	b.status = fmt.Sprintf("item %d is now %s", index, span)
	return b.jump(index)
}

// topItem returns the on-screen item nearest the leading edge. Prefetched
// items outside the viewport are skipped.
func (b *browser) topItem() (int, bool) {
	w, h := b.viewportPx()
	size := h
	if b.eng.Orientation() == grid.Horizontal {
		size = w
	}
	best, bestStart := -1, 0
	for _, it := range b.eng.Realized() {
		start, end := it.Frame.Top, it.Frame.Bottom
		if b.eng.Orientation() == grid.Horizontal {
			start, end = it.Frame.Left, it.Frame.Right
		}
		if end <= 0 || start >= size {
			continue
		}
		if best < 0 || start < bestStart {
			best, bestStart = it.Index, start
		}
	}
	return best, best >= 0
}

// resize adapts the viewport to the terminal and keeps the first visible item.
func (b *browser) resize(cols, rows int) error {
	top, ok := b.topItem()
	b.cols, b.rows = max(cols, 1), max(rows, chromeRows+1)
	if err := b.eng.Resize(b.viewportPx()); err != nil {
		return err
	}
	if ok {
		b.eng.RequestScrollTo(top)
	}
	return b.eng.Rebuild()
}

func (b *browser) View() string {
	var sb strings.Builder
	sb.WriteString(b.header())
	sb.WriteString("\n")
	sb.WriteString(browseFrameStyle.Render(b.canvas()))
	sb.WriteString("\n")
	sb.WriteString(b.footer())
	return sb.String()
}

func (b *browser) header() string {
	first, last := b.eng.Window()
	offset, _, count := b.eng.ScrollIndicator()
	pct := 0
	if count > 0 {
		pct = 100 * offset / count
	}
	info := fmt.Sprintf(" · %d items · window %d..%d · %d live · scroll %dpx · %d%%",
		count, first, last, len(b.tiles), b.eng.State().Scroll, pct)
	return StyleTitle.Render(b.items.Name) + browseHeaderStyle.Render(info)
}

func (b *browser) footer() string {
	help := "j/k line  pgup/pgdn page  g/G ends  q quit"
	if b.demo {
		help = "j/k line  pgup/pgdn page  g/G ends  space toggle  q quit"
	}
	if b.status != "" {
		return StyleDim.Render(help) + "  " + StyleHighlight.Render(b.status)
	}
	return StyleDim.Render(help)
}

// canvas draws every live tile as a box clipped to the viewport.
func (b *browser) canvas() string {
	height := b.rows - chromeRows
	cells := make([][]rune, height)
	for y := range cells {
		cells[y] = []rune(strings.Repeat(" ", b.cols))
	}

	tiles := make([]*tile, 0, len(b.tiles))
	for t := range b.tiles {
		tiles = append(tiles, t)
	}
	slices.SortFunc(tiles, func(x, y *tile) int { return x.index - y.index })

	for _, t := range tiles {
		label := b.items.Item(t.index).Label
		if label == "" {
			label = fmt.Sprint(t.index)
		}
		drawBox(cells, t.frame, label)
	}

	lines := make([]string, height)
	for y, row := range cells {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}

// drawBox draws a frame's border and centered label into cells, clipping
// whatever falls outside.
func drawBox(cells [][]rune, f grid.Frame, label string) {
	x0, x1 := f.Left/cellWidthPx, (f.Right-1)/cellWidthPx
	y0, y1 := floorDiv(f.Top, cellHeightPx), floorDiv(f.Bottom-1, cellHeightPx)
	if x1 <= x0 || y1 < y0 {
		return
	}
	set := func(x, y int, r rune) {
		if y >= 0 && y < len(cells) && x >= 0 && x < len(cells[y]) {
			cells[y][x] = r
		}
	}
	for x := x0 + 1; x < x1; x++ {
		set(x, y0, '─')
		set(x, y1, '─')
	}
	for y := y0 + 1; y < y1; y++ {
		set(x0, y, '│')
		set(x1, y, '│')
	}
	set(x0, y0, '╭')
	set(x1, y0, '╮')
	set(x0, y1, '╰')
	set(x1, y1, '╯')

	room := x1 - x0 - 1
	if room <= 0 {
		return
	}
	if r := []rune(label); len(r) > room {
		label = string(r[:room])
	}
	mid := (y0 + y1) / 2
	start := x0 + 1 + (room-len([]rune(label)))/2
	for i, r := range []rune(label) {
		set(start+i, mid, r)
	}
}

// floorDiv divides rounding toward negative infinity, so items partly
// scrolled off the top map to negative rows.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
