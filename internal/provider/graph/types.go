package graph

import (
	"encoding/base64"

	"github.com/shineum/contact-mailer/internal/email"
)

type sendMailRequest struct {
	Message         sendMailMessage `json:"message"`
	SaveToSentItems bool            `json:"saveToSentItems"`
}

type sendMailMessage struct {
	Subject      string            `json:"subject"`
	Body         messageBody       `json:"body"`
	ToRecipients []recipient       `json:"toRecipients"`
	Attachments  []graphAttachment `json:"attachments,omitempty"`
}

type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type graphErrorResponse struct {
	Error graphError `json:"error"`
}

type graphError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// buildSendMailRequest converts an email.Email into a sendMail request body,
// reading attachment content from the staged files.
func buildSendMailRequest(msg *email.Email) (*sendMailRequest, error) {
	toRecipients := make([]recipient, 0, len(msg.To))
	for _, addr := range msg.To {
		toRecipients = append(toRecipients, recipient{
			EmailAddress: emailAddress{Address: addr},
		})
	}

	attachments := make([]graphAttachment, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		content, err := att.Content()
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, graphAttachment{
			ODataType:    "#microsoft.graph.fileAttachment",
			Name:         att.Filename,
			ContentType:  att.MediaType(),
			ContentBytes: base64.StdEncoding.EncodeToString(content),
		})
	}

	return &sendMailRequest{
		Message: sendMailMessage{
			Subject: msg.Subject,
			Body: messageBody{
				ContentType: "text",
				Content:     msg.TextBody,
			},
			ToRecipients: toRecipients,
			Attachments:  attachments,
		},
	}, nil
}
