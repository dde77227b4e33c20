package services

import (
	"fmt"
	"strings"
)

// emailLayout wraps body HTML in the shared GrantHub email frame
func emailLayout(heading, bodyHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s - GrantHub</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: #ffffff;
            border-radius: 8px;
            padding: 40px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);
        }
        .logo {
            text-align: center;
            margin-bottom: 30px;
            padding-bottom: 20px;
            border-bottom: 2px solid #1a3c6e;
        }
        .logo h1 {
            color: #1a3c6e;
            font-size: 28px;
            margin: 0;
        }
        h2 { color: #1a3c6e; margin-top: 0; }
        .button {
            display: inline-block;
            background-color: #1a3c6e;
            color: #ffffff !important;
            padding: 14px 28px;
            text-decoration: none;
            border-radius: 6px;
            font-weight: 600;
            margin: 20px 0;
        }
        .notes {
            background-color: #f5f5f5;
            border-left: 4px solid #1a3c6e;
            padding: 12px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">
            <h1>GrantHub</h1>
        </div>
        <h2>%s</h2>
        %s
        <div class="footer">
            <p><strong>GrantHub</strong> — grants and mentorship for students</p>
            <p>If this message was not meant for you, you can safely ignore it.</p>
        </div>
    </div>
</body>
</html>`, heading, heading, bodyHTML)
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// ApplicationApprovedEmail builds the approval email for an applicant
func ApplicationApprovedEmail(applicantName, programTitle, reviewerNotes, appURL string) (subject, body string) {
	subject = fmt.Sprintf("Your application to %s has been approved", programTitle)
	body = emailLayout("Application Approved!", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Congratulations! Your application to <strong>%s</strong> has been approved.</p>
        <div class="notes"><strong>Reviewer notes:</strong><br>%s</div>
        <p style="text-align: center;"><a href="%s/dashboard" class="button">View Your Application</a></p>`,
		htmlEscape(applicantName), htmlEscape(programTitle), htmlEscape(reviewerNotes), appURL))
	return subject, body
}

// ApplicationRejectedEmail builds the rejection email for an applicant
func ApplicationRejectedEmail(applicantName, programTitle, reviewerNotes, appURL string) (subject, body string) {
	subject = fmt.Sprintf("Update on your application to %s", programTitle)
	body = emailLayout("Application Update", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>After careful review, we are unable to approve your application to <strong>%s</strong> at this time.</p>
        <div class="notes"><strong>Reviewer notes:</strong><br>%s</div>
        <p>You are welcome to apply to future programs.</p>`,
		htmlEscape(applicantName), htmlEscape(programTitle), htmlEscape(reviewerNotes)))
	return subject, body
}

// ApplicationMoreInfoEmail builds the more-information-requested email
func ApplicationMoreInfoEmail(applicantName, programTitle, reviewerNotes, appURL string) (subject, body string) {
	subject = fmt.Sprintf("More information needed for your %s application", programTitle)
	body = emailLayout("More Information Needed", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>The review team needs more information before deciding on your application to <strong>%s</strong>.</p>
        <div class="notes"><strong>What we need:</strong><br>%s</div>
        <p style="text-align: center;"><a href="%s/dashboard" class="button">Update Your Application</a></p>`,
		htmlEscape(applicantName), htmlEscape(programTitle), htmlEscape(reviewerNotes), appURL))
	return subject, body
}

// NewSubmissionEmail notifies an admin about a newly submitted application
func NewSubmissionEmail(adminName, applicantName, programTitle, appURL string) (subject, body string) {
	subject = fmt.Sprintf("New application submitted: %s", programTitle)
	body = emailLayout("New Application Submitted", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p><strong>%s</strong> just submitted an application to <strong>%s</strong>.</p>
        <p style="text-align: center;"><a href="%s/admin/applications" class="button">Review Applications</a></p>`,
		htmlEscape(adminName), htmlEscape(applicantName), htmlEscape(programTitle), appURL))
	return subject, body
}

// MentorshipRequestReceivedEmail notifies a mentor about a new mentee request
func MentorshipRequestReceivedEmail(mentorName, menteeName, appURL string) (subject, body string) {
	subject = "New mentorship request"
	body = emailLayout("New Mentorship Request", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p><strong>%s</strong> has requested you as their mentor.</p>
        <p style="text-align: center;"><a href="%s/mentorship" class="button">Respond to Request</a></p>`,
		htmlEscape(mentorName), htmlEscape(menteeName), appURL))
	return subject, body
}

// MentorshipRequestSentEmail confirms to a mentee that their request went out
func MentorshipRequestSentEmail(menteeName, mentorName, appURL string) (subject, body string) {
	subject = "Your mentorship request was sent"
	body = emailLayout("Mentorship Request Sent", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Your mentorship request to <strong>%s</strong> has been sent. You will hear back once they respond.</p>`,
		htmlEscape(menteeName), htmlEscape(mentorName)))
	return subject, body
}

// MentorshipRequestAcceptedEmail notifies a mentee their request was accepted
func MentorshipRequestAcceptedEmail(menteeName, mentorName, appURL string) (subject, body string) {
	subject = "Your mentorship request was accepted"
	body = emailLayout("Mentorship Request Accepted", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p><strong>%s</strong> accepted your mentorship request. Your mentorship is now active.</p>
        <p style="text-align: center;"><a href="%s/mentorship" class="button">Go to Mentorship</a></p>`,
		htmlEscape(menteeName), htmlEscape(mentorName), appURL))
	return subject, body
}

// MentorshipRequestRejectedEmail notifies a mentee their request was declined
func MentorshipRequestRejectedEmail(menteeName, mentorName, appURL string) (subject, body string) {
	subject = "Update on your mentorship request"
	body = emailLayout("Mentorship Request Update", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p><strong>%s</strong> is unable to take on your mentorship request at this time. You can request a different mentor from the mentorship page.</p>
        <p style="text-align: center;"><a href="%s/mentorship" class="button">Find a Mentor</a></p>`,
		htmlEscape(menteeName), htmlEscape(mentorName), appURL))
	return subject, body
}

// MentorshipWithdrawnEmail notifies a mentor that their mentee withdrew
func MentorshipWithdrawnEmail(mentorName, menteeName string) (subject, body string) {
	subject = "Mentorship request withdrawn"
	body = emailLayout("Mentorship Withdrawn", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p><strong>%s</strong> has withdrawn from the mentorship. No further action is needed.</p>`,
		htmlEscape(mentorName), htmlEscape(menteeName)))
	return subject, body
}

// PartnerVerifiedEmail notifies a partner their organization was verified
func PartnerVerifiedEmail(ownerName, orgName, appURL string) (subject, body string) {
	subject = fmt.Sprintf("%s has been verified on GrantHub", orgName)
	body = emailLayout("Organization Verified", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p><strong>%s</strong> has been verified. You can now post opportunities on the portal.</p>
        <p style="text-align: center;"><a href="%s/partner" class="button">Go to Partner Dashboard</a></p>`,
		htmlEscape(ownerName), htmlEscape(orgName), appURL))
	return subject, body
}

// PartnerRejectedEmail notifies a partner their verification was declined
func PartnerRejectedEmail(ownerName, orgName, appURL string) (subject, body string) {
	subject = fmt.Sprintf("Verification update for %s", orgName)
	body = emailLayout("Verification Update", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>We could not verify <strong>%s</strong> with the information provided. Please update your organization details and try again.</p>
        <p style="text-align: center;"><a href="%s/partner" class="button">Update Organization</a></p>`,
		htmlEscape(ownerName), htmlEscape(orgName), appURL))
	return subject, body
}

// VerifyEmailEmail builds the address-confirmation email
func VerifyEmailEmail(userName, verifyToken, appURL string) (subject, body string) {
	verifyLink := fmt.Sprintf("%s/verify-email?token=%s", appURL, verifyToken)
	subject = "Verify your GrantHub email address"
	body = emailLayout("Verify Your Email", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Please confirm your email address to finish setting up your GrantHub account.</p>
        <p style="text-align: center;"><a href="%s" class="button">Verify Email</a></p>
        <p>If the button does not work, copy this link into your browser:<br>%s</p>`,
		htmlEscape(userName), verifyLink, verifyLink))
	return subject, body
}

// PasswordResetEmail builds the password reset email
func PasswordResetEmail(userName, resetToken, appURL string) (subject, body string) {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", appURL, resetToken)
	subject = "Reset your GrantHub password"
	body = emailLayout("Reset Your Password", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>We received a request to reset the password for your GrantHub account.</p>
        <p style="text-align: center;"><a href="%s" class="button">Reset Password</a></p>
        <p>This link expires in 1 hour. If you did not request a reset, ignore this email.</p>`,
		htmlEscape(userName), resetLink))
	return subject, body
}
