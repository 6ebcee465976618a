package model

// NeteaseAlbum 网易云音乐专辑信息
type NeteaseAlbum struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

// NeteaseArtist 网易云音乐艺术家信息
type NeteaseArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NeteaseSong 网易云音乐歌曲信息
// /search returns "artists"/"album"/"duration", /song/detail returns "ar"/"al"/"dt".
type NeteaseSong struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Artists  []NeteaseArtist `json:"artists"`
	Album    NeteaseAlbum    `json:"album"`
	Duration int             `json:"duration"` // 毫秒
	Ar       []NeteaseArtist `json:"ar,omitempty"`
	Al       *NeteaseAlbum   `json:"al,omitempty"`
	Dt       int             `json:"dt,omitempty"`
}

// Normalize folds the /song/detail field names into the /search ones.
func (s *NeteaseSong) Normalize() {
	if len(s.Artists) == 0 && len(s.Ar) > 0 {
		s.Artists = s.Ar
	}
	if s.Album.ID == 0 && s.Album.Name == "" && s.Al != nil {
		s.Album = *s.Al
	}
	if s.Duration == 0 && s.Dt > 0 {
		s.Duration = s.Dt
	}
}

// NeteaseSearchResult 搜索结果
type NeteaseSearchResult struct {
	Songs []NeteaseSong `json:"songs"`
	Total int           `json:"songCount"`
}
