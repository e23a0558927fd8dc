package fastview

import (
	"context"
	"errors"
	"html/template"
	"strconv"
	"testing"

	channerics "github.com/niceyeti/channerics/channels"
	. "github.com/smartystreets/goconvey/convey"
)

// textView sets a single element's text to the view-model.
type textView struct {
	updates <-chan []EleUpdate
}

func newTextView(done <-chan struct{}, texts <-chan string) ViewComponent {
	return &textView{
		updates: channerics.Convert(done, texts, func(text string) []EleUpdate {
			return []EleUpdate{
				{
					EleId: "text",
					Ops:   []Op{{Key: "textContent", Value: text}},
				},
			}
		}),
	}
}

func (tv *textView) Updates() <-chan []EleUpdate {
	return tv.updates
}

func (tv *textView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "text" }}<span id="text">{{ . }}</span>{{ end }}`)
	return "text", err
}

func TestViewBuilder(t *testing.T) {
	Convey("When the builder is incomplete", t, func() {
		Convey("Build fails without views", func() {
			_, err := NewViewBuilder[int, string]().
				WithModel(make(chan int), strconv.Itoa).
				Build()
			So(errors.Is(err, ErrNoViews), ShouldBeTrue)
		})

		Convey("Build fails without a model", func() {
			_, err := NewViewBuilder[int, string]().
				WithView(newTextView).
				Build()
			So(errors.Is(err, ErrNoModel), ShouldBeTrue)
		})
	})

	Convey("When two views share a model", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		input := make(chan int)
		views, err := NewViewBuilder[int, string]().
			WithContext(ctx).
			WithModel(input, strconv.Itoa).
			WithView(newTextView).
			WithView(newTextView).
			Build()
		So(err, ShouldBeNil)
		So(len(views), ShouldEqual, 2)

		Convey("Every view receives each converted item", func() {
			go func() {
				input <- 42
				close(input)
			}()

			for _, view := range views {
				updates := <-view.Updates()
				So(updates, ShouldResemble, []EleUpdate{
					{
						EleId: "text",
						Ops:   []Op{{Key: "textContent", Value: "42"}},
					},
				})
			}
		})
	})
}
