package models

// Group is a named role such as Moderators, Editors or Members.
type Group struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Permissions []Permission `gorm:"many2many:group_permissions;" json:"-"`
}

// Permission is a model-level grant identified by its codename, e.g. change_article.
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Codename string `gorm:"size:100;uniqueIndex;not null" json:"codename"`
}
