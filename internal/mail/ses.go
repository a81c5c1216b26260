package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"xclone/internal/logger"
)

const charset = "UTF-8"

// Mailer delivers transactional mail.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESMailer struct {
	client   SESAPI
	from     string
	fromName string
}

func NewSESMailer(client SESAPI, from, fromName string) *SESMailer {
	return &SESMailer{client: client, from: from, fromName: fromName}
}

// NewSESMailerFromRegion loads the default AWS credential chain for region.
func NewSESMailerFromRegion(region, from, fromName string) (*SESMailer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESMailer(ses.NewFromConfig(cfg), from, fromName), nil
}

func (m *SESMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	subject := "Reset your password"
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
	<h1>Reset your password</h1>
	<p>Someone asked to reset the password for your account. This link expires in 1 hour.</p>
	<p><a href="%s">Reset password</a></p>
	<p>If you did not ask for this, ignore this email.</p>
</body>
</html>`, link)
	textBody := fmt.Sprintf("Reset your password\n\nOpen this link within 1 hour:\n\n%s\n\nIf you did not ask for this, ignore this email.\n", link)

	from := m.from
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.from)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charset)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String(charset)},
				Text: &types.Content{Data: aws.String(textBody), Charset: aws.String(charset)},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// LogMailer writes the link to the log instead of sending it. Used when no
// sender address is configured.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	logger.Log.Info("[Mail] Password reset link (mail disabled)", zap.String("to", to), zap.String("link", link))
	return nil
}
