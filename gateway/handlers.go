package gateway

import (
	apperrors "chat-relay/errors"
	"chat-relay/services"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) join(c *fiber.Ctx) error {
	var body JoinRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if err := s.service.Join(c.UserContext(), services.JoinCommand{Name: body.Name}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) listParticipants(c *fiber.Ctx) error {
	participants, err := s.service.ListOnline(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(toParticipantResponses(participants))
}

func (s *Server) sendMessage(c *fiber.Ctx) error {
	var body SendMessageRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	cmd := services.SendMessageCommand{
		From: c.Get(userHeader),
		To:   body.To,
		Text: body.Text,
		Kind: kindFromWire(body.Type),
	}
	if err := s.service.SendMessage(c.UserContext(), cmd); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	messages, err := s.service.ListMessages(c.UserContext(), services.ListMessagesCommand{
		Viewer: c.Get(userHeader),
		Limit:  c.Query("limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(toMessageResponses(messages))
}

func (s *Server) heartbeat(c *fiber.Ctx) error {
	user := c.Get(userHeader)
	if user == "" {
		return fmt.Errorf("%w: missing %s header", apperrors.ErrInvalidRequest, userHeader)
	}
	if err := s.service.Heartbeat(c.UserContext(), user); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}
