package web

import "heartclick/internal/game"

// StateView is the JSON answer of every action: the store output plus the
// derived character and video data the page needs.
type StateView struct {
	game.Snapshot
	Character      game.CharacterConfig `json:"character"`
	AvatarPath     string               `json:"avatarPath"`
	VideoPath      string               `json:"videoPath"`
	Videos         []game.VideoInfo     `json:"videos"`
	UnlockedVideos int                  `json:"unlockedVideos"`
}

// CharacterView is a roster entry with its resolved avatar.
type CharacterView struct {
	game.CharacterConfig
	AvatarPath string `json:"avatarPath"`
	Selected   bool   `json:"selected"`
}

// PageConstants are the presentation timings and frame size.
type PageConstants struct {
	HeartLifetimeMs     int64 `json:"heartLifetimeMs"`
	VictoryDelayMs      int64 `json:"victoryDelayMs"`
	ProgressAnimationMs int64 `json:"progressAnimationMs"`
	VideoLoop           bool  `json:"videoLoop"`
	VideoMuted          bool  `json:"videoMuted"`
	MobileWidth         int   `json:"mobileWidth"`
	MobileHeight        int   `json:"mobileHeight"`
}

// PageViewModel contains data for rendering the game page.
type PageViewModel struct {
	Title     string
	View      StateView
	Bootstrap PageBootstrap
}

// PageBootstrap is embedded in the page as JSON.
type PageBootstrap struct {
	View       StateView       `json:"view"`
	Shop       []game.ShopItem `json:"shop"`
	Characters []CharacterView `json:"characters"`
	Game       game.GameConfig `json:"game"`
	Constants  PageConstants   `json:"constants"`
}

var pageConstants = PageConstants{
	HeartLifetimeMs:     game.HeartLifetime.Milliseconds(),
	VictoryDelayMs:      game.VictoryDelay.Milliseconds(),
	ProgressAnimationMs: game.ProgressAnimation.Milliseconds(),
	VideoLoop:           true,
	VideoMuted:          true,
	MobileWidth:         420,
	MobileHeight:        812,
}

func (s *Server) makeStateView(snap game.Snapshot) StateView {
	st := snap.State
	character := s.Catalog.Character(st.SelectedCharacter)
	return StateView{
		Snapshot:       snap,
		Character:      character,
		AvatarPath:     game.AvatarPath(character.ID),
		VideoPath:      st.VideoPath(),
		Videos:         s.Catalog.UpdateVideoUnlockStatus(st.SelectedCharacter, st.CharacterProgress),
		UnlockedVideos: s.Catalog.UnlockedVideoCount(st.SelectedCharacter, st.CharacterProgress),
	}
}

func (s *Server) characterViews(selected string) []CharacterView {
	out := make([]CharacterView, 0, len(s.Catalog.Characters))
	for _, ch := range s.Catalog.Characters {
		out = append(out, CharacterView{
			CharacterConfig: ch,
			AvatarPath:      game.AvatarPath(ch.ID),
			Selected:        ch.ID == selected,
		})
	}
	return out
}

func (s *Server) makePageViewModel(snap game.Snapshot) PageViewModel {
	view := s.makeStateView(snap)
	return PageViewModel{
		Title: view.Character.DisplayName,
		View:  view,
		Bootstrap: PageBootstrap{
			View:       view,
			Shop:       s.Catalog.Shop,
			Characters: s.characterViews(snap.State.SelectedCharacter),
			Game:       s.Catalog.Game,
			Constants:  pageConstants,
		},
	}
}
