package vkrender

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// fakeDependent logs its lifecycle into a log shared by every fake in a test.
type fakeDependent struct {
	name      string
	log       *[]string
	createErr error
	live      bool
}

func (d *fakeDependent) Create(r *Renderer) error {
	*d.log = append(*d.log, "create "+d.name)
	if d.createErr != nil {
		return d.createErr
	}
	d.live = true
	return nil
}

func (d *fakeDependent) Destroy() {
	*d.log = append(*d.log, "destroy "+d.name)
	d.live = false
}

type fakePassOwner struct {
	fakeDependent
	pass *RenderPass
}

func (d *fakePassOwner) PresentedPass() *RenderPass { return d.pass }

type fakeOverlay struct {
	log      *[]string
	prepared *RenderPass
}

func (o *fakeOverlay) Prepare(rp *RenderPass) error {
	*o.log = append(*o.log, "prepare overlay")
	o.prepared = rp
	return nil
}

func (o *fakeOverlay) Draw(cmd *CommandBuffer, slot int, extent vk.Extent2D) error {
	return nil
}

func testDependents(log *[]string) ([]SwapchainDependent, *fakePassOwner) {
	post := &fakePassOwner{fakeDependent: fakeDependent{name: "post", log: log}, pass: &RenderPass{}}
	return []SwapchainDependent{
		&fakeDependent{name: "offscreen", log: log},
		&fakeDependent{name: "pipeline", log: log},
		post,
	}, post
}

func TestRebuildDependentsOrder(t *testing.T) {
	var log []string
	deps, post := testDependents(&log)
	overlay := &fakeOverlay{log: &log}
	recreate := func() error {
		log = append(log, "swapchain")
		return nil
	}

	if err := rebuildDependents(nil, deps, overlay, recreate); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"destroy post", "destroy pipeline", "destroy offscreen",
		"swapchain",
		"create offscreen", "create pipeline", "create post",
		"prepare overlay",
	}
	if !equalCalls(log, want) {
		t.Errorf("calls = %v, want %v", log, want)
	}
	if overlay.prepared != post.pass {
		t.Error("overlay prepared against a pass other than the presented one")
	}
}

func TestRebuildDependentsSwapchainFailure(t *testing.T) {
	var log []string
	deps, _ := testDependents(&log)
	overlay := &fakeOverlay{log: &log}
	errLost := errors.New("surface lost")

	err := rebuildDependents(nil, deps, overlay, func() error { return errLost })
	if !errors.Is(err, errLost) {
		t.Fatalf("got %v, want the swapchain error", err)
	}
	want := []string{"destroy post", "destroy pipeline", "destroy offscreen"}
	if !equalCalls(log, want) {
		t.Errorf("calls = %v, want %v", log, want)
	}

	// the retry destroys the already destroyed dependents again
	log = nil
	if err := rebuildDependents(nil, deps, overlay, func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	for _, d := range deps {
		if fd, ok := d.(*fakeDependent); ok && !fd.live {
			t.Errorf("%s not recreated by the retry", fd.name)
		}
	}
	if overlay.prepared == nil {
		t.Error("overlay not prepared after the retry")
	}
}

func TestRebuildDependentsCreateFailure(t *testing.T) {
	var log []string
	deps, _ := testDependents(&log)
	deps[1].(*fakeDependent).createErr = errors.New("pipeline compile failed")
	overlay := &fakeOverlay{log: &log}

	if err := rebuildDependents(nil, deps, overlay, func() error { return nil }); err == nil {
		t.Fatal("dependent failure not reported")
	}
	want := []string{
		"destroy post", "destroy pipeline", "destroy offscreen",
		"create offscreen", "create pipeline",
	}
	if !equalCalls(log, want) {
		t.Errorf("calls = %v, want %v", log, want)
	}
	if overlay.prepared != nil {
		t.Error("overlay prepared after a failed cascade")
	}
}

func TestPresentedPassPicksNewestOwner(t *testing.T) {
	var log []string
	first := &fakePassOwner{fakeDependent: fakeDependent{name: "scene", log: &log}, pass: &RenderPass{}}
	last := &fakePassOwner{fakeDependent: fakeDependent{name: "post", log: &log}, pass: &RenderPass{}}
	deps := []SwapchainDependent{first, &fakeDependent{name: "pipeline", log: &log}, last}
	if presentedPass(deps) != last.pass {
		t.Error("presented pass is not the newest owner's")
	}
	if presentedPass(deps[1:2]) != nil {
		t.Error("presented pass found without an owner")
	}
	if err := prepareOverlay(nil, deps); err != nil {
		t.Errorf("prepare without overlay: %v", err)
	}
}
