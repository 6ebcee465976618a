package netease

import (
	"context"
	"fmt"
	"net/url"

	"TemplePlayer/logger"
	"TemplePlayer/model"
)

// GetSongURL 获取歌曲URL
// An empty URL (usually a copyright restriction) returns ErrNotFound.
func (c *Client) GetSongURL(ctx context.Context, songID string) (string, error) {
	u := fmt.Sprintf("%s/song/url/v1?id=%s&level=exhigh", c.BaseURL, url.QueryEscape(songID))

	var result struct {
		apiStatus
		Data []struct {
			ID  int64  `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "[GetSongURL]", u, &result); err != nil {
		return "", err
	}

	if len(result.Data) == 0 || result.Data[0].URL == "" {
		logger.Info("[GetSongURL] 歌曲URL为空，可能是版权限制", logger.String("songID", songID))
		return "", fmt.Errorf("%w: %s has no playable url", ErrNotFound, songID)
	}

	logger.Debug("[GetSongURL] 成功获取歌曲URL", logger.String("songID", songID))
	return result.Data[0].URL, nil
}

// GetSongDetail 获取歌曲详情
func (c *Client) GetSongDetail(ctx context.Context, songID string) (*model.NeteaseSong, error) {
	u := fmt.Sprintf("%s/song/detail?ids=%s", c.BaseURL, url.QueryEscape(songID))

	var result struct {
		apiStatus
		Songs []model.NeteaseSong `json:"songs"`
	}
	if err := c.getJSON(ctx, "[GetSongDetail]", u, &result); err != nil {
		return nil, err
	}

	if len(result.Songs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, songID)
	}
	song := result.Songs[0]
	song.Normalize()
	return &song, nil
}

// SearchSongs 搜索歌曲
func (c *Client) SearchSongs(ctx context.Context, keyword string, limit, offset int) (*model.NeteaseSearchResult, error) {
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("offset", fmt.Sprintf("%d", offset))
	u := fmt.Sprintf("%s/search?%s", c.BaseURL, params.Encode())

	var result struct {
		apiStatus
		Result model.NeteaseSearchResult `json:"result"`
	}
	if err := c.getJSON(ctx, "[SearchSongs]", u, &result); err != nil {
		return nil, err
	}

	for i := range result.Result.Songs {
		result.Result.Songs[i].Normalize()
	}

	logger.Debug("[SearchSongs] 搜索完成",
		logger.String("keyword", keyword),
		logger.Int("offset", offset),
		logger.Int("count", len(result.Result.Songs)),
		logger.Int("total", result.Result.Total))
	return &result.Result, nil
}
