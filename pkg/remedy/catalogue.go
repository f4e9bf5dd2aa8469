package remedy

// DefaultCatalogue returns the fixed remediation catalogue for the Smart
// Patch Processor source tree. The order is part of the contract: entries
// later in the table may assume earlier ones already applied (the typing
// import fix runs before anything that inserts typed code, the circular
// import removal before the init guard that relies on self.processor).
func DefaultCatalogue() []Transformation {
	return []Transformation{
		{
			Name:       "validation-original-filename",
			TargetFile: "validation.py",
			Precondition: Precondition{
				Pattern: "original_filename = filename",
				Want:    PatternAbsent,
			},
			Action: InsertAfterAnchor{
				Anchor: "import unicodedata",
				Block:  "\n    # keep the pre-sanitization name for the fallback path\n    original_filename = filename",
			},
		},
		{
			Name:       "validation-typing-list-import",
			TargetFile: "validation.py",
			Precondition: Precondition{
				Pattern: "from typing import Union, Optional, List",
				Want:    PatternAbsent,
			},
			Action: StructuredRewrite{
				Fragment:    "from typing import Union, Optional",
				Replacement: "from typing import Union, Optional, List",
			},
		},
		{
			Name:       "validation-duplicate-path-check",
			TargetFile: "validation.py",
			Precondition: Precondition{
				Pattern: "def validate_file_path_secure",
				Want:    PatternDuplicated,
			},
			Action: DeleteDuplicateBlocks{
				StartPattern: "def validate_file_path_secure",
				EndPattern:   "return resolved_path",
			},
		},
		{
			Name:       "config-yaml-recursion",
			TargetFile: "patch_processor_config.py",
			Precondition: Precondition{
				Pattern: "return self._load_yaml_secure(content)",
				Want:    PatternPresent,
			},
			Action: StructuredRewrite{
				Fragment:    "return self._load_yaml_secure(content)",
				Replacement: "                return yaml.safe_load(content) if yaml else None",
			},
		},
		{
			Name:       "rollback-journal-query",
			TargetFile: "rollback_manager.py",
			Precondition: Precondition{
				Pattern: `conn.execute('SELECT COUNT(*) FROM operations WHERE status = %s' % status)`,
				Want:    PatternPresent,
			},
			Action: StructuredRewrite{
				Fragment: `conn.execute('SELECT COUNT(*) FROM operations WHERE status = %s' % status)`,
				Replacement: `            cursor = conn.execute(
                """
                SELECT COUNT(*)
                FROM operations
                WHERE status = ?
                """,
                (status,),
            )`,
			},
		},
		{
			Name:       "wizard-circular-import",
			TargetFile: "wizard_mode.py",
			Precondition: Precondition{
				Pattern: "from core import registry, get_processor",
				Want:    PatternPresent,
			},
			Action: StructuredRewrite{
				Fragment:    "from core import registry, get_processor",
				Replacement: "from core import registry",
			},
		},
		{
			Name:       "wizard-init-guard",
			TargetFile: "wizard_mode.py",
			Precondition: Precondition{
				Pattern: "Processor cannot be None",
				Want:    PatternAbsent,
			},
			Action: InsertAfterAnchor{
				Anchor: "def __init__(self, processor, config: PatchProcessorConfig):",
				Block:  "        if processor is None:\n            raise ValueError(\"Processor cannot be None\")",
			},
		},
		{
			Name:       "corrector-duplicate-headers",
			TargetFile: "line_number_corrector.py",
			Precondition: Precondition{
				Pattern: "def correct_diff_headers(",
				Want:    PatternDuplicated,
			},
			Action: DeleteDuplicateBlocks{
				StartPattern: "def correct_diff_headers(",
				EndPattern:   "return corrected_lines",
			},
		},
		{
			Name:       "applicator-debug-imports",
			TargetFile: "patch_applicator.py",
			Precondition: Precondition{
				Pattern: "import pdb",
				Want:    PatternPresent,
			},
			Action: DeleteMatching{
				Pattern: "import pdb",
			},
		},
		{
			Name:       "applicator-hunk-header-regex",
			TargetFile: "patch_applicator.py",
			Precondition: Precondition{
				Pattern: `r'@@\\s*-(\\d+)`,
				Want:    PatternPresent,
			},
			Action: StructuredRewrite{
				Fragment:    `r'@@\\s*-(\\d+)`,
				Replacement: `        header_re = re.compile(r'@@\s*-(\d+)(?:,(\d+))?\s*\+(\d+)(?:,(\d+))?\s*@@')`,
			},
		},
	}
}
