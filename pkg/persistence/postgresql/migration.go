package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE users (
				id VARCHAR(255) PRIMARY KEY,
				email VARCHAR(320) NOT NULL,
				name VARCHAR(255) NOT NULL DEFAULT '',
				profile_image TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE UNIQUE INDEX idx_users_email ON users(LOWER(email)) WHERE email <> '';

			CREATE TABLE teams (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				avatar_url TEXT NOT NULL DEFAULT '',
				owner_id VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE team_members (
				id VARCHAR(255) PRIMARY KEY,
				team_id VARCHAR(255) NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
				user_id VARCHAR(255) NOT NULL,
				role VARCHAR(50) NOT NULL CHECK (role IN ('owner', 'admin', 'member')),
				can_create_workflows BOOLEAN NOT NULL DEFAULT false,
				can_edit_workflows BOOLEAN NOT NULL DEFAULT false,
				can_delete_workflows BOOLEAN NOT NULL DEFAULT false,
				can_invite_members BOOLEAN NOT NULL DEFAULT false,
				can_manage_roles BOOLEAN NOT NULL DEFAULT false,
				joined_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (team_id, user_id)
			);

			CREATE INDEX idx_team_members_user_id ON team_members(user_id);

			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				owner_id VARCHAR(255) NOT NULL,
				team_id VARCHAR(255),
				visibility VARCHAR(50) NOT NULL CHECK (visibility IN ('private', 'team', 'public')),
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				templates JSONB NOT NULL DEFAULT '{}',
				published BOOLEAN NOT NULL DEFAULT false,
				is_template BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_owner_id ON workflows(owner_id);
			CREATE INDEX idx_workflows_team_id ON workflows(team_id);
			CREATE INDEX idx_workflows_updated_at ON workflows(updated_at);

			CREATE TABLE notifications (
				id VARCHAR(255) PRIMARY KEY,
				user_id VARCHAR(255) NOT NULL,
				type VARCHAR(100) NOT NULL,
				content TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_notifications_user_id ON notifications(user_id);
		`,
	}
}
