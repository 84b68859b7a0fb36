package finder_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/yeisme/filedock/pkg/internal/finder"
)

func TestDispatcherOrderAndStop(t *testing.T) {
	var calls []string

	hook := func(name string, cont bool) finder.Hook {
		return func(context.Context, finder.Event) bool {
			calls = append(calls, name)
			return cont
		}
	}

	d := finder.NewDispatcher(func(d *finder.Dispatcher) {
		d.On(finder.EventFileUpload, hook("journal", true))
	})
	d.On(finder.EventFileUpload, hook("guard", false))
	d.On(finder.EventFileUpload, hook("never", true))

	if d.Dispatch(context.Background(), finder.EventFileUpload, &finder.FileUploadEvent{}) {
		t.Fatal("Dispatch should report the stop")
	}

	if want := []string{"journal", "guard"}; !reflect.DeepEqual(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}

	if !d.Dispatch(context.Background(), "nobody.listens", &finder.FileUploadEvent{}) {
		t.Fatal("Dispatch without hooks must continue")
	}
}

func TestDispatcherOnce(t *testing.T) {
	d := finder.NewDispatcher()
	n := 0

	d.Once(finder.AfterCommand(finder.CommandFileUpload), func(context.Context, finder.Event) bool {
		n++
		return true
	})

	ev := &finder.AfterCommandEvent{Command: finder.CommandFileUpload}
	d.Dispatch(context.Background(), ev.EventName(), ev)
	d.Dispatch(context.Background(), ev.EventName(), ev)

	if n != 1 {
		t.Fatalf("once hook ran %d times", n)
	}

	if ev.EventName() != "afterCommand.FileUpload" {
		t.Fatalf("EventName = %q", ev.EventName())
	}
}
