package model

import "time"

// Role names the permission set a user carries.  Only two roles
// exist in the portal: students who book services and admins who
// manage the catalog.
type Role string

const (
    RoleStudent Role = "STUDENT"
    RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleStudent || r == RoleAdmin }

// User is the canonical identity record stored in the `users`
// table.  Login, authorization and password changes all read this
// row; the role specific copies below are written alongside it at
// registration time.
//
// Fields:
//  UserID       – identifier of the form "{role}_{timestamp}_{suffix}".
//  Email        – lower-cased, unique email address.
//  PasswordHash – bcrypt hash of the password.
//  Role         – STUDENT or ADMIN.
//  CreatedDate  – registration timestamp.
type User struct {
    UserID       string    `json:"userID"`       // users.userID
    Email        string    `json:"email"`        // users.email
    PasswordHash string    `json:"passwordHash"` // users.passwordHash
    Role         Role      `json:"role"`         // users.role
    CreatedDate  time.Time `json:"createdDate"`  // users.createdDate
}

// Student is the copy of a STUDENT user kept in the `students`
// table.  It shares the user's identifier.
type Student struct {
    StudentID        string    `json:"studentID"`        // students.studentID
    Name             string    `json:"name"`             // students.name
    Email            string    `json:"email"`            // students.email
    PasswordHash     string    `json:"passwordHash"`     // students.passwordHash
    Role             Role      `json:"role"`             // students.role
    RegistrationDate time.Time `json:"registrationDate"` // students.registrationDate
}

// Admin is the copy of an ADMIN user kept in the `admins` table.
// Permissions is informational only; authorization decisions use
// the static role table.
type Admin struct {
    AdminID      string   `json:"adminID"`      // admins.adminID
    Name         string   `json:"name"`         // admins.name
    Email        string   `json:"email"`        // admins.email
    PasswordHash string   `json:"passwordHash"` // admins.passwordHash
    Role         Role     `json:"role"`         // admins.role
    Permissions  []string `json:"permissions"`  // admins.permissions
}
