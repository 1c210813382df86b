package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrSendPermissionDenied marks a send rejected for missing permissions,
	// typically the mention-everyone permission. The poster recovers from it
	// by retrying without a mention.
	ErrSendPermissionDenied = errors.New("discord: send permission denied")
	// ErrChannelNotFound marks a send to an unknown or inaccessible channel.
	ErrChannelNotFound = errors.New("discord: channel not found")
)

// classifySendError maps a discordgo REST failure onto the sentinel errors
// the poster dispatches on. Unrecognized failures pass through unchanged.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return err
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
		return errors.Join(ErrSendPermissionDenied, err)
	case discordgo.ErrCodeUnknownChannel:
		return errors.Join(ErrChannelNotFound, err)
	}
	return err
}
