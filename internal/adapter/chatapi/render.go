package chatapi

import (
	"fmt"

	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

// messagePayload is the platform's rich message shape. Rendering lives here
// so the wizard core never sees embeds or buttons, only the Announcement.
type messagePayload struct {
	Content string   `json:"content,omitempty"`
	Embeds  []embed  `json:"embeds,omitempty"`
	Buttons []button `json:"buttons,omitempty"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     string       `json:"color,omitempty"`
	Thumbnail string       `json:"thumbnail,omitempty"`
	Image     string       `json:"image,omitempty"`
	Fields    []embedField `json:"fields,omitempty"`
	Footer    string       `json:"footer,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type button struct {
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
}

func renderAnnouncement(a domain.Announcement) messagePayload {
	e := embed{
		Title: a.Title,
		Color: a.Color,
		Fields: []embedField{
			{Name: "Prize", Value: a.Prize, Inline: true},
			{Name: "Winners", Value: fmt.Sprintf("%d", a.Winners), Inline: true},
			{Name: "Duration", Value: a.Duration, Inline: true},
			{Name: "Membership", Value: a.Membership},
			{Name: "Minimum Messages", Value: fmt.Sprintf("%d", a.MinMessages), Inline: true},
			{Name: "Required Roles", Value: a.RequiredRoles},
			{Name: "How to Enter", Value: a.CustomEntry},
		},
		Footer: fmt.Sprintf("Hosted by <@%s> • %s", a.HostID, a.ID),
	}

	if a.Thumbnail != domain.SentinelNone {
		e.Thumbnail = a.Thumbnail
	}
	if a.Banner != domain.SentinelNone {
		e.Image = a.Banner
	}

	label := a.ButtonText
	if label == domain.SentinelDefault {
		label = "Enter Giveaway"
	}

	content := a.StartMessage
	if content == domain.SentinelDefault {
		content = fmt.Sprintf("A new giveaway is live: **%s**!", a.Title)
	}

	return messagePayload{
		Content: content,
		Embeds:  []embed{e},
		Buttons: []button{{Label: label, CustomID: "giveaway_enter:" + a.ID.String()}},
	}
}
