package store

import "fmt"

// ListProjects returns the distinct projects used by tasks, sorted, or
// [DefaultProject] when there are none.
func (s *Store) ListProjects() ([]string, error) {
	return s.distinct("project")
}

// ListSections returns the distinct non-empty sections, sorted, or
// [DefaultProject] when there are none.
func (s *Store) ListSections() ([]string, error) {
	return s.distinct("section")
}

// column is always one of the literals above.
func (s *Store) distinct(column string) ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT DISTINCT %[1]s FROM tasks WHERE %[1]s <> '' ORDER BY %[1]s`, column))
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []string{DefaultProject}, nil
	}
	return out, nil
}
