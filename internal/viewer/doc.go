// Package viewer implements the collaborators the content engine delegates
// to: the assignment viewer (status, drafts, submission) and the quiz
// summary viewer, which links out to the site through the autologin bridge
// instead of embedding.
package viewer
