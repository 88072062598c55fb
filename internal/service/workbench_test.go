package service_test

import (
	"context"
	"testing"

	"workbench/internal/config"
	"workbench/internal/domain"
	"workbench/internal/ingest"
	"workbench/internal/service"
	"workbench/internal/viewport"
)

func TestWorkbench_SceneChangesAreBroadcast(t *testing.T) {
	wb, em := newBench(t, &fakeBackend{}, config.LateDiscard)

	img, err := wb.Scene.Add(context.Background(), ingest.FromBytes(pngBytes(t, 20, 20)))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	wb.Scene.Select(img.ID, false)

	changes := em.Named(service.EventSceneChanged)
	if len(changes) != 2 {
		t.Fatalf("expected 2 scene:changed events, got %d", len(changes))
	}
	last := changes[1].Data.(service.SceneChange)
	if len(last.SelectedIDs) != 1 || !last.Images[0].Selected {
		t.Errorf("payload should carry the selection, got %+v", last)
	}
}

func TestWorkbench_ControllerDrivenChangesDoNotDeadlock(t *testing.T) {
	wb, em := newBench(t, &fakeBackend{}, config.LateDiscard)
	img, _ := wb.Scene.Add(context.Background(), ingest.FromBytes(pngBytes(t, 20, 20)))

	// The controller holds its own lock while it mutates the scene.
	p := img.Position
	wb.Viewport.PointerDown(viewport.PointerEvent{X: p.X + 5, Y: p.Y + 5, Button: viewport.ButtonLeft})
	wb.Viewport.PointerUp(viewport.PointerEvent{X: p.X + 5, Y: p.Y + 5, Button: viewport.ButtonLeft})

	st := wb.State()
	if len(st.SelectedIDs) != 1 || st.SelectedIDs[0] != img.ID {
		t.Errorf("click should select the image, got %v", st.SelectedIDs)
	}
	if len(em.Named(viewport.EventChanged)) == 0 {
		t.Error("expected viewport:changed")
	}
}

func TestWorkbench_FlowToggleAndGenerateAnchor(t *testing.T) {
	wb, _ := newBench(t, &fakeBackend{}, config.LateDiscard)

	wb.SetFlowVisible(false)
	if wb.State().ShowFlowConnections {
		t.Error("flow should be hidden")
	}
	wb.SetFlowVisible(true)

	wb.Viewport.ContextMenu(viewport.PointerEvent{X: 250, Y: 125})
	sid := wb.OpenGenerate()
	if !wb.Generation.IsOpen(sid) {
		t.Fatal("session should be open")
	}
	if pos, ok := wb.Viewport.ContextPosition(); !ok || pos != (domain.Position{X: 250, Y: 125}) {
		t.Errorf("context position got %v %v", pos, ok)
	}
}
