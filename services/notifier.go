package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"
	texttemplate "text/template"

	"review-workflow-api/models"
	"review-workflow-api/utils"
)

// Mailer sends an HTML message. config.SMTPMailer implements it.
type Mailer interface {
	SendMail(to []string, subject, html string) error
}

type notificationTemplate struct {
	subject *texttemplate.Template
	body    *template.Template
	// toRequester selects the requester as recipient instead of the reviewer.
	toRequester bool
}

// Subjects are plain text; only bodies are HTML escaped.
func subjectTemplate(text string) *texttemplate.Template {
	return texttemplate.Must(texttemplate.New("subject").Parse(text))
}

var notificationTemplates = map[string]notificationTemplate{
	ActionAssigned: {
		subject: subjectTemplate("Review requested: {{.Document}}"),
		body: template.Must(template.New("assigned").Parse(
			`<p>{{.Actor}} asked you to review <b>{{.Document}}</b> ({{.Locale}}).</p>{{if .Note}}<blockquote>{{.Note}}</blockquote>{{end}}{{if .Link}}<p><a href="{{.Link}}">Open document</a></p>{{end}}`)),
	},
	ActionReRequested: {
		subject: subjectTemplate("Review re-requested: {{.Document}}"),
		body: template.Must(template.New("re-requested").Parse(
			`<p>{{.Actor}} updated <b>{{.Document}}</b> ({{.Locale}}) and requested another review.</p>{{if .Note}}<blockquote>{{.Note}}</blockquote>{{end}}{{if .Link}}<p><a href="{{.Link}}">Open document</a></p>{{end}}`)),
	},
	ActionApproved: {
		subject:     subjectTemplate("Review approved: {{.Document}}"),
		toRequester: true,
		body: template.Must(template.New("approved").Parse(
			`<p>{{.Actor}} approved <b>{{.Document}}</b> ({{.Locale}}). It can now be published.</p>{{if .Note}}<blockquote>{{.Note}}</blockquote>{{end}}`)),
	},
	ActionRejected: {
		subject:     subjectTemplate("Changes requested: {{.Document}}"),
		toRequester: true,
		body: template.Must(template.New("rejected").Parse(
			`<p>{{.Actor}} rejected <b>{{.Document}}</b> ({{.Locale}}).</p>{{if .Note}}<blockquote>{{.Note}}</blockquote>{{end}}{{if .Link}}<p><a href="{{.Link}}">Open document</a></p>{{end}}`)),
	},
}

// notificationComment maps an action to the comment type whose text is quoted.
var notificationComment = map[string]string{
	ActionAssigned:    models.CommentTypeAssignment,
	ActionReRequested: models.CommentTypeReRequest,
	ActionApproved:    models.CommentTypeApproval,
	ActionRejected:    models.CommentTypeRejection,
}

type notificationData struct {
	Actor    string
	Document string
	Locale   string
	Note     string
	Link     string
}

// MailNotifier emails the other party of a review when it changes state.
type MailNotifier struct {
	mailer   Mailer
	baseURL  string
	dispatch func(func())
}

func NewMailNotifier(mailer Mailer, baseURL string) *MailNotifier {
	return &MailNotifier{
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		dispatch: func(fn func()) { go fn() },
	}
}

// Subscribe starts delivering notifications for events published on bus.
func (n *MailNotifier) Subscribe(bus *EventBus) (unsubscribe func()) {
	return bus.OnReviewsChanged(func(evt ReviewEvent) {
		to, subject, body, ok := n.compose(evt)
		if !ok {
			return
		}
		n.dispatch(func() {
			if err := n.mailer.SendMail([]string{to}, subject, body); err != nil {
				log.Printf("review notification %s to %s failed: %v", evt.Action, to, err)
			}
		})
	})
}

func (n *MailNotifier) compose(evt ReviewEvent) (to, subject, body string, ok bool) {
	tmpl, known := notificationTemplates[evt.Action]
	if !known || evt.Review == nil {
		return "", "", "", false
	}

	review := evt.Review
	recipient, actor := review.Reviewer, review.Requester
	if tmpl.toRequester {
		recipient, actor = review.Requester, review.Reviewer
	}
	if recipient == nil || !utils.ValidateEmail(recipient.Email) {
		return "", "", "", false
	}

	data := notificationData{
		Document: fmt.Sprintf("%s/%s", review.AssignedContentType, review.AssignedDocumentID),
		Locale:   review.Locale,
		Note:     latestCommentOfType(review, notificationComment[evt.Action]),
	}
	if actor != nil {
		data.Actor = actor.DisplayName()
	}
	if n.baseURL != "" {
		data.Link = fmt.Sprintf("%s/content-manager/%s/%s?locale=%s",
			n.baseURL, review.AssignedContentType, review.AssignedDocumentID, review.Locale)
	}

	var subjectBuf, bodyBuf bytes.Buffer
	if err := tmpl.subject.Execute(&subjectBuf, data); err != nil {
		log.Printf("review notification %s: subject template failed: %v", evt.Action, err)
		return "", "", "", false
	}
	if err := tmpl.body.Execute(&bodyBuf, data); err != nil {
		log.Printf("review notification %s: template failed: %v", evt.Action, err)
		return "", "", "", false
	}
	return recipient.Email, subjectBuf.String(), bodyBuf.String(), true
}

func latestCommentOfType(review *models.Review, commentType string) string {
	for i := len(review.Comments) - 1; i >= 0; i-- {
		if review.Comments[i].CommentType == commentType {
			return review.Comments[i].Content
		}
	}
	return ""
}
