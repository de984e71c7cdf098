// Package replywindow computes whether an outbound reply is currently
// permitted on a channel.
package replywindow

import "time"

// Channel identifies the transport a conversation runs over.
type Channel string

const (
	ChannelWebWidget Channel = "web_widget"
	ChannelEmail     Channel = "email"
	ChannelAPI       Channel = "api"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelFacebook  Channel = "facebook"
)

// MessagingWindow is the reply window enforced by restricted channels.
const MessagingWindow = 24 * time.Hour

// restricted channels only accept outbound messages within MessagingWindow
// of the contact's last message.
var restricted = map[Channel]bool{
	ChannelWhatsApp: true,
	ChannelFacebook: true,
}

// Restricted reports whether the channel enforces a reply window.
func Restricted(channel Channel) bool {
	return restricted[channel]
}

// CanReply is a pure function of the channel type, the most recent incoming
// message timestamp (nil when the contact never wrote) and the current time.
// Unrestricted channels always allow replies. Restricted channels allow a
// reply strictly within MessagingWindow of the last incoming message; at
// exactly the boundary the window is closed.
func CanReply(channel Channel, lastIncomingAt *time.Time, now time.Time) bool {
	if !Restricted(channel) {
		return true
	}
	if lastIncomingAt == nil {
		return false
	}
	return now.Sub(*lastIncomingAt) < MessagingWindow
}
