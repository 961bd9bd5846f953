package panel

import (
	"errors"
	"sync"
	"testing"

	"lumino/internal/coordinator"
	"lumino/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIssuer struct {
	mu      sync.Mutex
	sources []string
}

func (f *fakeIssuer) Issue(source coordinator.SourceProvider) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, source())
	return uint64(len(f.sources))
}

func TestInitialState(t *testing.T) {
	c := New(Options{NativeLabel: "සිංහල"})
	s := c.State()

	assert.False(t, s.Minimized)
	assert.False(t, s.Expanded)
	assert.Equal(t, LoadingTitle, s.VideoTitle)
	assert.Equal(t, model.PanelIdle, s.Status)
	assert.Equal(t, MinimizeIcon, s.MinimizeIcon)
	assert.Equal(t, ExpandIcon, s.ExpandIcon)
}

func TestToggleMinimizeIsAnInvolution(t *testing.T) {
	c := New(Options{})
	before := c.State()

	s := c.ToggleMinimize()
	assert.True(t, s.Minimized)
	assert.Equal(t, MaximizeIcon, s.MinimizeIcon)
	assert.Equal(t, "Maximize", s.MinimizeLabel)

	s = c.ToggleMinimize()
	assert.Equal(t, before, s)
}

func TestToggleExpandIsAnInvolution(t *testing.T) {
	c := New(Options{})
	before := c.State()

	s := c.ToggleExpand()
	assert.True(t, s.Expanded)
	assert.Equal(t, CollapseIcon, s.ExpandIcon)
	assert.Equal(t, "Collapse", s.ExpandLabel)

	s = c.ToggleExpand()
	assert.Equal(t, before, s)
}

func TestMinimizeAndExpandAreIndependent(t *testing.T) {
	c := New(Options{})

	c.ToggleExpand()
	s := c.ToggleMinimize()

	assert.True(t, s.Minimized)
	assert.True(t, s.Expanded)
}

func TestGeneratePrefersManualText(t *testing.T) {
	issuer := &fakeIssuer{}
	c := New(Options{Probe: func() model.VideoContext {
		return model.VideoContext{VideoID: "a", Title: "Intro to X"}
	}})
	c.Attach(issuer)

	c.OnGenerateClicked("  pasted transcript  ")
	c.OnGenerateClicked("   ")
	c.OnGenerateClicked("")

	assert.Equal(t, []string{"pasted transcript", "Intro to X", "Intro to X"}, issuer.sources)
}

func TestGenerateWithoutProbeUsesShownTitle(t *testing.T) {
	issuer := &fakeIssuer{}
	c := New(Options{})
	c.Attach(issuer)

	c.ShowVideo(model.VideoContext{VideoID: "a", Title: "Shown"})
	c.OnGenerateClicked("")

	assert.Equal(t, []string{"Shown"}, issuer.sources)
}

func TestOnVideoChanged(t *testing.T) {
	issuer := &fakeIssuer{}
	c := New(Options{})
	c.Attach(issuer)

	gen := c.OnVideoChanged(model.VideoContext{VideoID: "b", Title: "Second video"})
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, "Second video", c.State().VideoTitle)

	c.OnVideoChanged(model.VideoContext{VideoID: "c"})
	assert.Equal(t, UnknownTitle, c.State().VideoTitle)
	assert.Equal(t, []string{"Second video", ""}, issuer.sources)
}

func TestRenderBeforeAttach(t *testing.T) {
	c := New(Options{NativeLabel: "සිංහල"})

	c.RenderGenerating()
	assert.Equal(t, model.PanelGenerating, c.State().Status)
	assert.Equal(t, GeneratingMsg, c.State().ResultHTML)

	c.RenderResult("<em>x</em>")
	assert.Equal(t, model.PanelReady, c.State().Status)
	assert.Equal(t, "<strong>Summary (සිංහල):</strong><br/><em>x</em>", c.State().ResultHTML)

	c.RenderError("Summary API error: down")
	assert.Equal(t, model.PanelError, c.State().Status)
	assert.Contains(t, c.State().ResultHTML, "Summary API error: down")

	assert.Equal(t, uint64(0), c.OnGenerateClicked("text"))
	assert.Contains(t, c.State().ResultHTML, "not attached")
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	c := New(Options{})
	ch, cancel := c.Subscribe()

	c.ToggleMinimize()
	c.RenderGenerating()

	first := <-ch
	second := <-ch
	assert.True(t, first.Minimized)
	assert.Equal(t, model.PanelGenerating, second.Status)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	c.ToggleMinimize()
}

func TestInjectorRunsOnce(t *testing.T) {
	var inj Injector
	calls := 0

	ok, err := inj.Inject(func() error { return errors.New("no body yet") })
	require.Error(t, err)
	assert.False(t, ok)
	assert.False(t, inj.Injected())

	ok, err = inj.Inject(func() error { calls++; return nil })
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inj.Inject(func() error { calls++; return nil })
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, calls)
	assert.True(t, inj.Injected())
}
