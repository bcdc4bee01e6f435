package scraper

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrProfileNotFound = errors.New("profile not found")

// Profile is a creator profile normalized across platforms.
type Profile struct {
	Platform       string `json:"platform"`
	Handle         string `json:"handle"`
	DisplayName    string `json:"display_name"`
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatar_url"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	PostCount      int64  `json:"post_count"`
	IsVerified     bool   `json:"is_verified"`
}

// Post is a single post or video normalized across platforms.
type Post struct {
	Platform     string     `json:"platform"`
	ExternalID   string     `json:"external_id"`
	URL          string     `json:"url"`
	Caption      string     `json:"caption"`
	ThumbnailURL string     `json:"thumbnail_url"`
	MediaURLs    []string   `json:"media_urls"`
	Likes        int64      `json:"likes"`
	Comments     int64      `json:"comments"`
	Views        int64      `json:"views"`
	Shares       int64      `json:"shares"`
	PostedAt     *time.Time `json:"posted_at"`
}

type Transcript struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type instagramProfileResponse struct {
	Data struct {
		User *struct {
			Username       string `json:"username"`
			FullName       string `json:"full_name"`
			Biography      string `json:"biography"`
			ProfilePicURL  string `json:"profile_pic_url"`
			ProfilePicHD   string `json:"profile_pic_url_hd"`
			IsVerified     bool   `json:"is_verified"`
			EdgeFollowedBy struct {
				Count int64 `json:"count"`
			} `json:"edge_followed_by"`
			EdgeFollow struct {
				Count int64 `json:"count"`
			} `json:"edge_follow"`
			EdgeOwnerToTimelineMedia struct {
				Count int64 `json:"count"`
			} `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
}

func (r instagramProfileResponse) toProfile(handle string) (*Profile, error) {
	u := r.Data.User
	if u == nil {
		return nil, fmt.Errorf("%w: instagram @%s", ErrProfileNotFound, handle)
	}
	avatar := u.ProfilePicHD
	if avatar == "" {
		avatar = u.ProfilePicURL
	}
	if u.Username != "" {
		handle = strings.ToLower(u.Username)
	}
	return &Profile{
		Platform:       PlatformInstagram,
		Handle:         handle,
		DisplayName:    u.FullName,
		Bio:            u.Biography,
		AvatarURL:      avatar,
		FollowerCount:  u.EdgeFollowedBy.Count,
		FollowingCount: u.EdgeFollow.Count,
		PostCount:      u.EdgeOwnerToTimelineMedia.Count,
		IsVerified:     u.IsVerified,
	}, nil
}

type instagramImageVersions struct {
	Candidates []struct {
		URL string `json:"url"`
	} `json:"candidates"`
}

func (v instagramImageVersions) first() string {
	if len(v.Candidates) == 0 {
		return ""
	}
	return v.Candidates[0].URL
}

type instagramPostsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Code    string `json:"code"`
		TakenAt int64  `json:"taken_at"`
		Caption *struct {
			Text string `json:"text"`
		} `json:"caption"`
		LikeCount     int64                  `json:"like_count"`
		CommentCount  int64                  `json:"comment_count"`
		PlayCount     int64                  `json:"play_count"`
		ImageVersions instagramImageVersions `json:"image_versions2"`
		CarouselMedia []struct {
			ImageVersions instagramImageVersions `json:"image_versions2"`
		} `json:"carousel_media"`
	} `json:"items"`
}

func (r instagramPostsResponse) toPosts() []Post {
	posts := make([]Post, 0, len(r.Items))
	for _, item := range r.Items {
		if item.ID == "" {
			continue
		}
		p := Post{
			Platform:     PlatformInstagram,
			ExternalID:   item.ID,
			ThumbnailURL: item.ImageVersions.first(),
			Likes:        item.LikeCount,
			Comments:     item.CommentCount,
			Views:        item.PlayCount,
			PostedAt:     unixTime(item.TakenAt),
		}
		if item.Code != "" {
			p.URL = "https://www.instagram.com/p/" + item.Code + "/"
		}
		if item.Caption != nil {
			p.Caption = item.Caption.Text
		}
		for _, m := range item.CarouselMedia {
			if u := m.ImageVersions.first(); u != "" {
				p.MediaURLs = append(p.MediaURLs, u)
			}
		}
		if len(p.MediaURLs) == 0 && p.ThumbnailURL != "" {
			p.MediaURLs = []string{p.ThumbnailURL}
		}
		posts = append(posts, p)
	}
	return posts
}

type tiktokProfileResponse struct {
	User *struct {
		UniqueID     string `json:"uniqueId"`
		Nickname     string `json:"nickname"`
		Signature    string `json:"signature"`
		AvatarLarger string `json:"avatarLarger"`
		Verified     bool   `json:"verified"`
	} `json:"user"`
	Stats struct {
		FollowerCount  int64 `json:"followerCount"`
		FollowingCount int64 `json:"followingCount"`
		VideoCount     int64 `json:"videoCount"`
	} `json:"stats"`
}

func (r tiktokProfileResponse) toProfile(handle string) (*Profile, error) {
	if r.User == nil {
		return nil, fmt.Errorf("%w: tiktok @%s", ErrProfileNotFound, handle)
	}
	if r.User.UniqueID != "" {
		handle = strings.ToLower(r.User.UniqueID)
	}
	return &Profile{
		Platform:       PlatformTikTok,
		Handle:         handle,
		DisplayName:    r.User.Nickname,
		Bio:            r.User.Signature,
		AvatarURL:      r.User.AvatarLarger,
		FollowerCount:  r.Stats.FollowerCount,
		FollowingCount: r.Stats.FollowingCount,
		PostCount:      r.Stats.VideoCount,
		IsVerified:     r.User.Verified,
	}, nil
}

type tiktokVideosResponse struct {
	AwemeList []struct {
		AwemeID    string `json:"aweme_id"`
		Desc       string `json:"desc"`
		CreateTime int64  `json:"create_time"`
		ShareURL   string `json:"share_url"`
		Statistics struct {
			DiggCount    int64 `json:"digg_count"`
			CommentCount int64 `json:"comment_count"`
			PlayCount    int64 `json:"play_count"`
			ShareCount   int64 `json:"share_count"`
		} `json:"statistics"`
		Video struct {
			Cover struct {
				URLList []string `json:"url_list"`
			} `json:"cover"`
			PlayAddr struct {
				URLList []string `json:"url_list"`
			} `json:"play_addr"`
		} `json:"video"`
	} `json:"aweme_list"`
}

func (r tiktokVideosResponse) toPosts(handle string) []Post {
	posts := make([]Post, 0, len(r.AwemeList))
	for _, v := range r.AwemeList {
		if v.AwemeID == "" {
			continue
		}
		p := Post{
			Platform:   PlatformTikTok,
			ExternalID: v.AwemeID,
			URL:        v.ShareURL,
			Caption:    v.Desc,
			Likes:      v.Statistics.DiggCount,
			Comments:   v.Statistics.CommentCount,
			Views:      v.Statistics.PlayCount,
			Shares:     v.Statistics.ShareCount,
			PostedAt:   unixTime(v.CreateTime),
		}
		if p.URL == "" {
			p.URL = fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", handle, v.AwemeID)
		}
		if len(v.Video.Cover.URLList) > 0 {
			p.ThumbnailURL = v.Video.Cover.URLList[0]
		}
		if len(v.Video.PlayAddr.URLList) > 0 {
			p.MediaURLs = []string{v.Video.PlayAddr.URLList[0]}
		}
		posts = append(posts, p)
	}
	return posts
}

type transcriptResponse struct {
	Transcript  string `json:"transcript"`
	Transcripts []struct {
		Text string `json:"text"`
	} `json:"transcripts"`
}

func (r transcriptResponse) toTranscript(postURL string) *Transcript {
	text := r.Transcript
	if text == "" {
		parts := make([]string, 0, len(r.Transcripts))
		for _, t := range r.Transcripts {
			if t.Text != "" {
				parts = append(parts, t.Text)
			}
		}
		text = strings.Join(parts, "\n")
	}
	return &Transcript{URL: postURL, Text: text}
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
