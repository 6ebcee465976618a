package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"TemplePlayer/core/picker"
	"TemplePlayer/core/player"
	"TemplePlayer/model"

	"github.com/spf13/cobra"
)

var (
	playDir       string
	playRecursive bool
)

var playCmd = &cobra.Command{
	Use:   "play [paths...]",
	Short: "播放本地文件",
	Long:  `Resolve the given files (or every audio file under --dir) through the local provider and play them in order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var p picker.Picker = picker.Static(args)
		if playDir != "" {
			p = picker.Dir{Root: playDir, Recursive: playRecursive}
		}
		paths, err := p.Pick(ctx)
		if err != nil {
			return fmt.Errorf("pick files: %w", err)
		}
		if len(paths) == 0 {
			return errors.New("no audio files selected")
		}

		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		tracks, err := a.registry.ResolveLocalPaths(ctx, paths)
		if err != nil {
			return err
		}
		return playUntilDone(ctx, a.controller, tracks)
	},
}

// playback is the slice of *player.Controller that playUntilDone drives.
type playback interface {
	SubscribeState(fn func(model.PlayerState)) (unsubscribe func())
	SubscribeError(fn func(player.ErrorEvent)) (unsubscribe func())
	LoadQueue(ctx context.Context, tracks []model.Track)
	Play(ctx context.Context)
}

// playUntilDone plays tracks and prints each change of track or status. It
// returns once playback stops after having started, when the first track
// cannot be loaded or played, or when ctx is done.
func playUntilDone(ctx context.Context, c playback, tracks []model.Track) error {
	done := make(chan struct{})
	var (
		mu         sync.Mutex
		started    bool
		failed     error
		lastStatus model.PlayerStatus
		lastTrack  string
		closeOnce  sync.Once
	)
	finish := func() { closeOnce.Do(func() { close(done) }) }

	unsubscribe := c.SubscribeState(func(s model.PlayerState) {
		mu.Lock()
		defer mu.Unlock()
		trackID := ""
		if s.CurrentTrack != nil {
			trackID = s.CurrentTrack.ID
		}
		if s.Status == lastStatus && trackID == lastTrack {
			return
		}
		lastStatus, lastTrack = s.Status, trackID
		fmt.Println(describeState(s))

		switch {
		case s.Status == model.StatusPlaying:
			started = true
		case s.Status == model.StatusStopped && started:
			finish()
		}
	})
	defer unsubscribe()

	unsubscribeErr := c.SubscribeError(func(ev player.ErrorEvent) {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", ev.Type, ev.Err)

		mu.Lock()
		defer mu.Unlock()
		// 已经开始播放后的错误交给 ended/next 处理
		if started || (ev.Type != player.ErrorLoad && ev.Type != player.ErrorPlay) {
			return
		}
		if failed == nil {
			failed = fmt.Errorf("%s: %w", ev.Type, ev.Err)
		}
		finish()
	})
	defer unsubscribeErr()

	c.LoadQueue(ctx, tracks)
	c.Play(ctx)

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	return failed
}

func describeState(s model.PlayerState) string {
	if s.CurrentTrack == nil {
		return fmt.Sprintf("[%s]", s.Status)
	}
	t := s.CurrentTrack
	parts := []string{t.Title}
	if t.ArtistName != "" {
		parts = append([]string{t.ArtistName}, parts...)
	}
	return fmt.Sprintf("[%s] %d/%d %s", s.Status, s.QueueIndex+1, len(s.Queue), strings.Join(parts, " - "))
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringVarP(&playDir, "dir", "d", "", "play every audio file in this directory")
	playCmd.Flags().BoolVarP(&playRecursive, "recursive", "r", false, "include subdirectories of --dir")
}
